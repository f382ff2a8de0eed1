// Package workspace connects the client state (explorer, editor, session) to
// the API. Transitions mutate state immediately and return the Fetch they
// need; Execute performs it and Apply routes the result back, so a response
// that arrives after the selection moved on is dropped.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/editor"
	"github.com/Pradeepvanguru/Testing-Tool/internal/explorer"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrLoginRequired   = errors.New("login required")
	ErrNothingSelected = errors.New("select a test case or run first")
)

// API is the part of the API client the workspace uses.
type API interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListReleases(ctx context.Context, projectID string) ([]models.Release, error)
	ListRuns(ctx context.Context, projectID, releaseID string) ([]models.Run, error)
	ListTestCases(ctx context.Context, projectID, releaseID, runID string) ([]models.TestCase, error)
	ListSteps(ctx context.Context, projectID, releaseID, runID, testCaseID string) ([]models.TestStep, error)
	SaveSteps(ctx context.Context, payload apiclient.StepsPayload) ([]models.TestStep, error)

	CreateProject(ctx context.Context, name string) (*models.Project, error)
	CreateRelease(ctx context.Context, projectID, name string) (*models.Release, error)
	CreateRun(ctx context.Context, projectID, releaseID, name string) (*models.Run, error)
	CreateTestCase(ctx context.Context, projectID, releaseID, runID, name string) (*models.TestCase, error)

	StartTestCase(ctx context.Context, testCaseID string) (*models.Execution, error)
	StartRun(ctx context.Context, runID string) (*models.Execution, error)
}

// Session reports whether a user is signed in.
type Session interface {
	Authenticated() bool
}

// View is a consistent copy of the workspace state for rendering.
type View struct {
	Selection        explorer.Selection
	Projects         []explorer.ProjectNode
	ProjectsLoading  bool
	Runs             []explorer.RunNode
	RunsLoading      bool
	TestCases        []models.TestCase
	TestCasesLoading bool
	StepsLoading     bool
	Rows             []editor.Row
	Editing          *editor.EditState
	Dirty            bool
}

// Workspace is safe for concurrent use.
type Workspace struct {
	api     API
	session Session
	logger  *log.Logger
	group   singleflight.Group

	mu       sync.Mutex
	explorer *explorer.Explorer
	editor   *editor.Editor
}

// New creates a workspace. logger may be nil.
func New(api API, session Session, logger *log.Logger) *Workspace {
	return &Workspace{
		api:      api,
		session:  session,
		logger:   logger,
		explorer: explorer.New(),
		editor:   editor.New(),
	}
}

// Reset drops all loaded data and the selection, as after a logout.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.explorer.Reset()
	w.editor.Reset()
}

// ===== Transitions =====

// Refresh requests the project list.
func (w *Workspace) Refresh() *explorer.Fetch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.explorer.LoadProjects()
}

// ChooseProject selects a project.
func (w *Workspace) ChooseProject(p models.Project) *explorer.Fetch {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editor.Reset()
	return w.explorer.SelectProject(p)
}

// ChooseRelease selects a release of project p.
func (w *Workspace) ChooseRelease(p models.Project, r models.Release) *explorer.Fetch {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editor.Reset()
	return w.explorer.SelectRelease(p, r)
}

// ChooseRun selects a run of the selected release.
func (w *Workspace) ChooseRun(r models.Run) *explorer.Fetch {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editor.Reset()
	return w.explorer.SelectRun(r)
}

// ChooseTestCase selects a test case of the selected run.
func (w *Workspace) ChooseTestCase(tc models.TestCase) *explorer.Fetch {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.editor.Reset()
	return w.explorer.SelectTestCase(tc)
}

// ToggleProject expands or collapses a project node.
func (w *Workspace) ToggleProject(projectID string) *explorer.Fetch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.explorer.ToggleProject(projectID)
}

// ToggleRun expands or collapses a run node.
func (w *Workspace) ToggleRun(runID string) *explorer.Fetch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.explorer.ToggleRun(runID)
}

// ===== Fetch execution =====

// Execute performs the network call for f. It touches no state, so it can
// run on any goroutine. Concurrent executions of the same Fetch share one
// call; a fetch issued later, even for the same slot, never joins an
// earlier call whose response may predate a write.
func (w *Workspace) Execute(ctx context.Context, f *explorer.Fetch) explorer.Result {
	res := explorer.Result{Fetch: *f}
	k := f.Key
	flightKey := strings.Join([]string{
		f.Kind.String(), k.ProjectID, k.ReleaseID, k.RunID, k.TestCaseID,
		strconv.FormatUint(f.Seq, 10),
	}, "/")

	v, err, _ := w.group.Do(flightKey, func() (interface{}, error) {
		switch f.Kind {
		case explorer.FetchProjects:
			return w.api.ListProjects(ctx)
		case explorer.FetchReleases:
			return w.api.ListReleases(ctx, k.ProjectID)
		case explorer.FetchRuns:
			return w.api.ListRuns(ctx, k.ProjectID, k.ReleaseID)
		case explorer.FetchTestCases:
			return w.api.ListTestCases(ctx, k.ProjectID, k.ReleaseID, k.RunID)
		case explorer.FetchSteps:
			return w.api.ListSteps(ctx, k.ProjectID, k.ReleaseID, k.RunID, k.TestCaseID)
		}
		return nil, fmt.Errorf("unknown fetch kind %d", f.Kind)
	})
	if err != nil {
		res.Err = err
		return res
	}

	switch data := v.(type) {
	case []models.Project:
		res.Projects = data
	case []models.Release:
		res.Releases = data
	case []models.Run:
		res.Runs = data
	case []models.TestCase:
		res.TestCases = data
	case []models.TestStep:
		res.Steps = data
	}
	return res
}

// Apply routes a completed fetch to the explorer and, for steps, the
// editor. Stale results return explorer.ErrStale and change nothing.
func (w *Workspace) Apply(res explorer.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.explorer.Apply(res); err != nil {
		if errors.Is(err, explorer.ErrStale) && w.logger != nil {
			w.logger.Debug("dropped stale response", "kind", res.Fetch.Kind, "seq", res.Fetch.Seq)
		}
		return err
	}
	if res.Fetch.Kind == explorer.FetchSteps {
		w.editor.Load(res.Fetch.Key, res.Steps)
	}
	return nil
}

// Run executes and applies f. A nil f is a no-op.
func (w *Workspace) Run(ctx context.Context, f *explorer.Fetch) error {
	if f == nil {
		return nil
	}
	return w.Apply(w.Execute(ctx, f))
}

// ===== Synchronous helpers =====

// Load fetches the project list.
func (w *Workspace) Load(ctx context.Context) error {
	return w.Run(ctx, w.Refresh())
}

// SelectProject selects p and loads its releases.
func (w *Workspace) SelectProject(ctx context.Context, p models.Project) error {
	return w.Run(ctx, w.ChooseProject(p))
}

// SelectRelease selects r and loads its runs.
func (w *Workspace) SelectRelease(ctx context.Context, p models.Project, r models.Release) error {
	return w.Run(ctx, w.ChooseRelease(p, r))
}

// SelectRun selects r and loads its test cases.
func (w *Workspace) SelectRun(ctx context.Context, r models.Run) error {
	return w.Run(ctx, w.ChooseRun(r))
}

// SelectTestCase selects tc and loads its steps into the editor.
func (w *Workspace) SelectTestCase(ctx context.Context, tc models.TestCase) error {
	return w.Run(ctx, w.ChooseTestCase(tc))
}

// ===== Creates =====

// CreateProject creates a project and reloads the project list.
func (w *Workspace) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	p, err := w.api.CreateProject(ctx, name)
	if err != nil {
		return nil, err
	}
	return p, w.refresh(ctx, func(e *explorer.Explorer) *explorer.Fetch { return e.LoadProjects() })
}

// CreateRelease creates a release under projectID and reloads that
// project's releases.
func (w *Workspace) CreateRelease(ctx context.Context, projectID, name string) (*models.Release, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, ErrNothingSelected
	}
	r, err := w.api.CreateRelease(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	return r, w.refresh(ctx, func(e *explorer.Explorer) *explorer.Fetch {
		if f := e.InvalidateProject(projectID); f != nil {
			return f
		}
		return e.ToggleProject(projectID)
	})
}

// CreateRun creates a run under the selected release and reloads the runs.
func (w *Workspace) CreateRun(ctx context.Context, name string) (*models.Run, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	key := w.Selection().Key()
	if key.ProjectID == "" || key.ReleaseID == "" {
		return nil, ErrNothingSelected
	}
	r, err := w.api.CreateRun(ctx, key.ProjectID, key.ReleaseID, name)
	if err != nil {
		return nil, err
	}
	return r, w.refresh(ctx, func(e *explorer.Explorer) *explorer.Fetch { return e.InvalidateRuns() })
}

// CreateTestCase creates a test case under the selected run and reloads
// its test cases.
func (w *Workspace) CreateTestCase(ctx context.Context, name string) (*models.TestCase, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	key := w.Selection().Key()
	if key.RunID == "" {
		return nil, ErrNothingSelected
	}
	tc, err := w.api.CreateTestCase(ctx, key.ProjectID, key.ReleaseID, key.RunID, name)
	if err != nil {
		return nil, err
	}
	return tc, w.refresh(ctx, func(e *explorer.Explorer) *explorer.Fetch {
		if f := e.InvalidateRun(key.RunID); f != nil {
			return f
		}
		return e.ToggleRun(key.RunID)
	})
}

func (w *Workspace) refresh(ctx context.Context, next func(*explorer.Explorer) *explorer.Fetch) error {
	w.mu.Lock()
	f := next(w.explorer)
	w.mu.Unlock()

	if err := w.Run(ctx, f); err != nil && !errors.Is(err, explorer.ErrStale) {
		return fmt.Errorf("failed to refresh: %w", err)
	}
	return nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	return name, nil
}

// ===== Steps =====

// Edit runs fn against the editor under the workspace lock.
func (w *Workspace) Edit(fn func(*editor.Editor) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.editor)
}

// SaveSteps persists the editor rows in one bulk call. If the test case
// changed while the call was in flight the response is dropped; edits made
// while it was in flight are kept and the table stays dirty.
func (w *Workspace) SaveSteps(ctx context.Context) error {
	w.mu.Lock()
	if !w.editor.Loaded() {
		w.mu.Unlock()
		return editor.ErrNoTestCase
	}
	pending := w.editor.BeginSave()
	w.mu.Unlock()

	saved, err := w.api.SaveSteps(ctx, pending.Payload)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editor.ApplySaved(pending, saved)
}

// ===== Execution =====

// RunSelected starts a simulated execution of the selected test case, or
// of the selected run when no test case is selected.
func (w *Workspace) RunSelected(ctx context.Context) (*models.Execution, error) {
	if w.session == nil || !w.session.Authenticated() {
		return nil, ErrLoginRequired
	}
	sel := w.Selection()
	switch {
	case sel.TestCase != nil:
		return w.api.StartTestCase(ctx, sel.TestCase.TestCaseID)
	case sel.Run != nil:
		return w.api.StartRun(ctx, sel.Run.RunID)
	default:
		return nil, ErrNothingSelected
	}
}

// ===== Accessors =====

// Selection returns the current selection.
func (w *Workspace) Selection() explorer.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.explorer.Selection()
}

// Snapshot returns a copy of the state for rendering.
func (w *Workspace) Snapshot() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		Selection:        w.explorer.Selection(),
		Projects:         w.explorer.Projects(),
		ProjectsLoading:  w.explorer.ProjectsLoading(),
		Runs:             w.explorer.Runs(),
		RunsLoading:      w.explorer.RunsLoading(),
		TestCases:        w.explorer.TestCases(),
		TestCasesLoading: w.explorer.TestCasesLoading(),
		StepsLoading:     w.explorer.StepsLoading(),
		Rows:             w.editor.Rows(),
		Dirty:            w.editor.Dirty(),
	}
	if st, ok := w.editor.Editing(); ok {
		v.Editing = &st
	}
	return v
}
