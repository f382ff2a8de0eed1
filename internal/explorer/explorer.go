// Package explorer is the drill-down selection state of the client:
// Project → Release → Run → TestCase, plus the lazily loaded tree nodes
// around it. It performs no I/O. Transitions return the Fetch they need and
// completed fetches come back through Apply, which drops responses that no
// longer match the state they were issued for.
package explorer

import (
	"errors"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
)

// ErrStale is returned by Apply for a result whose request has been
// superseded. The result is discarded.
var ErrStale = errors.New("stale response")

// Kind names what a Fetch loads.
type Kind int

const (
	FetchProjects Kind = iota
	FetchReleases
	FetchRuns
	FetchTestCases
	FetchSteps
)

func (k Kind) String() string {
	switch k {
	case FetchProjects:
		return "projects"
	case FetchReleases:
		return "releases"
	case FetchRuns:
		return "runs"
	case FetchTestCases:
		return "testcases"
	case FetchSteps:
		return "steps"
	default:
		return "unknown"
	}
}

// Key holds the selection identifiers a fetch was issued for.
type Key struct {
	ProjectID  string
	ReleaseID  string
	RunID      string
	TestCaseID string
}

// Fetch is a request for data the state needs.
type Fetch struct {
	Kind Kind
	Key  Key
	Seq  uint64
}

// Result is a completed Fetch. Exactly one of the slices is meaningful,
// according to Fetch.Kind, unless Err is set.
type Result struct {
	Fetch     Fetch
	Projects  []models.Project
	Releases  []models.Release
	Runs      []models.Run
	TestCases []models.TestCase
	Steps     []models.TestStep
	Err       error
}

// Selection is the current drill-down path. A nil level is unselected.
type Selection struct {
	Project  *models.Project
	Release  *models.Release
	Run      *models.Run
	TestCase *models.TestCase
}

// Key returns the identifiers of the selected levels.
func (s Selection) Key() Key {
	var k Key
	if s.Project != nil {
		k.ProjectID = s.Project.ProjectID
	}
	if s.Release != nil {
		k.ReleaseID = s.Release.ReleaseID
	}
	if s.Run != nil {
		k.RunID = s.Run.RunID
	}
	if s.TestCase != nil {
		k.TestCaseID = s.TestCase.TestCaseID
	}
	return k
}

// ProjectNode is a project in the tree with its lazily loaded releases.
type ProjectNode struct {
	Project        models.Project
	Expanded       bool
	ChildrenLoaded bool
	Loading        bool
	Releases       []models.Release

	seq uint64
}

// RunNode is a run of the selected release with its lazily loaded test
// cases.
type RunNode struct {
	Run            models.Run
	Expanded       bool
	ChildrenLoaded bool
	Loading        bool
	TestCases      []models.TestCase

	seq uint64
}

// Explorer holds the selection and tree state.
type Explorer struct {
	sel Selection

	projects        []*ProjectNode
	projectsLoading bool
	projectsSeq     uint64

	// Runs of the selected release.
	runs        []*RunNode
	runsLoading bool
	runsSeq     uint64

	stepsLoading bool
	stepsSeq     uint64

	seq uint64
}

// New returns an empty explorer.
func New() *Explorer {
	return &Explorer{}
}

func (e *Explorer) next(kind Kind, key Key) *Fetch {
	e.seq++
	return &Fetch{Kind: kind, Key: key, Seq: e.seq}
}

// ===== Transitions =====

// LoadProjects requests the project list.
func (e *Explorer) LoadProjects() *Fetch {
	f := e.next(FetchProjects, Key{})
	e.projectsSeq = f.Seq
	e.projectsLoading = true
	return f
}

// SelectProject selects p and clears release, run and test case. It returns
// a releases fetch when p's releases have not been loaded yet.
func (e *Explorer) SelectProject(p models.Project) *Fetch {
	e.sel = Selection{Project: &p}
	e.clearRuns()
	e.clearSteps()

	node := e.ensureProject(p)
	node.Expanded = true
	return e.loadReleases(node)
}

// SelectRelease selects p and r and clears run and test case. It always
// returns a runs fetch.
func (e *Explorer) SelectRelease(p models.Project, r models.Release) *Fetch {
	e.sel = Selection{Project: &p, Release: &r}
	e.clearRuns()
	e.clearSteps()
	e.ensureProject(p)

	f := e.next(FetchRuns, e.sel.Key())
	e.runsSeq = f.Seq
	e.runsLoading = true
	return f
}

// SelectRun selects r under the current release and clears the test case.
// It always returns a test-case fetch. Test cases already shown for r stay
// in place until the fetch completes.
func (e *Explorer) SelectRun(r models.Run) *Fetch {
	e.sel.Run = &r
	e.sel.TestCase = nil
	e.clearSteps()

	node := e.ensureRun(r)
	node.Expanded = true
	node.ChildrenLoaded = false
	node.Loading = false
	return e.loadTestCases(node)
}

// SelectTestCase selects tc and returns the steps fetch for it.
func (e *Explorer) SelectTestCase(tc models.TestCase) *Fetch {
	e.sel.TestCase = &tc

	f := e.next(FetchSteps, e.sel.Key())
	e.stepsSeq = f.Seq
	e.stepsLoading = true
	return f
}

// Reset drops the tree and the selection. Sequence numbers keep counting so
// results of fetches issued before the reset stay stale.
func (e *Explorer) Reset() {
	*e = Explorer{seq: e.seq}
}

// ClearSelection drops the whole selection.
func (e *Explorer) ClearSelection() {
	e.sel = Selection{}
	e.clearRuns()
	e.clearSteps()
}

// ToggleProject expands or collapses a project node. Expanding a node whose
// releases are neither loaded nor loading returns the one fetch for them.
func (e *Explorer) ToggleProject(projectID string) *Fetch {
	node := e.project(projectID)
	if node == nil {
		return nil
	}
	node.Expanded = !node.Expanded
	if !node.Expanded {
		return nil
	}
	return e.loadReleases(node)
}

// ToggleRun expands or collapses a run node of the selected release.
func (e *Explorer) ToggleRun(runID string) *Fetch {
	node := e.run(runID)
	if node == nil {
		return nil
	}
	node.Expanded = !node.Expanded
	if !node.Expanded {
		return nil
	}
	return e.loadTestCases(node)
}

// InvalidateProject marks a project's releases for reload, for example
// after a release was created. An expanded node is refetched immediately.
func (e *Explorer) InvalidateProject(projectID string) *Fetch {
	node := e.project(projectID)
	if node == nil {
		return nil
	}
	node.ChildrenLoaded = false
	node.Loading = false
	node.seq = 0
	if !node.Expanded {
		return nil
	}
	return e.loadReleases(node)
}

// InvalidateRuns refetches the runs of the selected release.
func (e *Explorer) InvalidateRuns() *Fetch {
	if e.sel.Project == nil || e.sel.Release == nil {
		return nil
	}
	key := e.sel.Key()
	f := e.next(FetchRuns, Key{ProjectID: key.ProjectID, ReleaseID: key.ReleaseID})
	e.runsSeq = f.Seq
	e.runsLoading = true
	return f
}

// InvalidateRun marks a run's test cases for reload. An expanded node is
// refetched immediately.
func (e *Explorer) InvalidateRun(runID string) *Fetch {
	node := e.run(runID)
	if node == nil {
		return nil
	}
	node.ChildrenLoaded = false
	node.Loading = false
	node.seq = 0
	if !node.Expanded {
		return nil
	}
	return e.loadTestCases(node)
}

// ReloadSteps refetches the steps of the selected test case.
func (e *Explorer) ReloadSteps() *Fetch {
	if e.sel.TestCase == nil {
		return nil
	}
	return e.SelectTestCase(*e.sel.TestCase)
}

// ===== Apply =====

// Current reports whether f is still the outstanding request for its slot.
func (e *Explorer) Current(f Fetch) bool {
	switch f.Kind {
	case FetchProjects:
		return f.Seq == e.projectsSeq
	case FetchReleases:
		node := e.project(f.Key.ProjectID)
		return node != nil && node.Loading && node.seq == f.Seq
	case FetchRuns:
		key := e.sel.Key()
		return f.Seq == e.runsSeq && f.Key.ProjectID == key.ProjectID && f.Key.ReleaseID == key.ReleaseID
	case FetchTestCases:
		key := e.sel.Key()
		node := e.run(f.Key.RunID)
		return node != nil && node.Loading && node.seq == f.Seq &&
			f.Key.ProjectID == key.ProjectID && f.Key.ReleaseID == key.ReleaseID
	case FetchSteps:
		return f.Seq == e.stepsSeq && f.Key == e.sel.Key()
	default:
		return false
	}
}

// Apply stores a completed fetch. Superseded results return ErrStale and
// change nothing. A failed fetch clears its loading flag and returns the
// fetch error, leaving prior data in place.
func (e *Explorer) Apply(res Result) error {
	f := res.Fetch
	if !e.Current(f) {
		return ErrStale
	}

	switch f.Kind {
	case FetchProjects:
		e.projectsLoading = false
		if res.Err != nil {
			return res.Err
		}
		e.setProjects(res.Projects)

	case FetchReleases:
		node := e.project(f.Key.ProjectID)
		node.Loading = false
		if res.Err != nil {
			return res.Err
		}
		node.Releases = res.Releases
		node.ChildrenLoaded = true

	case FetchRuns:
		e.runsLoading = false
		if res.Err != nil {
			return res.Err
		}
		e.setRuns(res.Runs)

	case FetchTestCases:
		node := e.run(f.Key.RunID)
		node.Loading = false
		if res.Err != nil {
			return res.Err
		}
		node.TestCases = res.TestCases
		node.ChildrenLoaded = true

	case FetchSteps:
		e.stepsLoading = false
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// ===== Accessors =====

// Selection returns the current selection.
func (e *Explorer) Selection() Selection { return e.sel }

// Projects returns the project nodes in order.
func (e *Explorer) Projects() []ProjectNode {
	out := make([]ProjectNode, len(e.projects))
	for i, n := range e.projects {
		out[i] = *n
	}
	return out
}

// ProjectsLoading reports whether the project list is being fetched.
func (e *Explorer) ProjectsLoading() bool { return e.projectsLoading }

// Runs returns the run nodes of the selected release.
func (e *Explorer) Runs() []RunNode {
	out := make([]RunNode, len(e.runs))
	for i, n := range e.runs {
		out[i] = *n
	}
	return out
}

// RunsLoading reports whether the runs of the selected release are being
// fetched.
func (e *Explorer) RunsLoading() bool { return e.runsLoading }

// TestCases returns the test cases of the selected run.
func (e *Explorer) TestCases() []models.TestCase {
	if e.sel.Run == nil {
		return nil
	}
	if node := e.run(e.sel.Run.RunID); node != nil {
		return node.TestCases
	}
	return nil
}

// TestCasesLoading reports whether the selected run's test cases are being
// fetched.
func (e *Explorer) TestCasesLoading() bool {
	if e.sel.Run == nil {
		return false
	}
	node := e.run(e.sel.Run.RunID)
	return node != nil && node.Loading
}

// StepsLoading reports whether the selected test case's steps are being
// fetched.
func (e *Explorer) StepsLoading() bool { return e.stepsLoading }

// ===== Helpers =====

func (e *Explorer) loadReleases(node *ProjectNode) *Fetch {
	if node.ChildrenLoaded || node.Loading {
		return nil
	}
	f := e.next(FetchReleases, Key{ProjectID: node.Project.ProjectID})
	node.Loading = true
	node.seq = f.Seq
	return f
}

func (e *Explorer) loadTestCases(node *RunNode) *Fetch {
	if node.ChildrenLoaded || node.Loading {
		return nil
	}
	key := e.sel.Key()
	f := e.next(FetchTestCases, Key{ProjectID: key.ProjectID, ReleaseID: key.ReleaseID, RunID: node.Run.RunID})
	node.Loading = true
	node.seq = f.Seq
	return f
}

func (e *Explorer) project(id string) *ProjectNode {
	for _, n := range e.projects {
		if n.Project.ProjectID == id {
			return n
		}
	}
	return nil
}

func (e *Explorer) run(id string) *RunNode {
	for _, n := range e.runs {
		if n.Run.RunID == id {
			return n
		}
	}
	return nil
}

func (e *Explorer) ensureProject(p models.Project) *ProjectNode {
	if node := e.project(p.ProjectID); node != nil {
		return node
	}
	node := &ProjectNode{Project: p}
	e.projects = append(e.projects, node)
	return node
}

func (e *Explorer) ensureRun(r models.Run) *RunNode {
	if node := e.run(r.RunID); node != nil {
		return node
	}
	node := &RunNode{Run: r}
	e.runs = append(e.runs, node)
	return node
}

// setProjects replaces the project list, keeping node state for projects
// that are still present.
func (e *Explorer) setProjects(projects []models.Project) {
	nodes := make([]*ProjectNode, 0, len(projects))
	for _, p := range projects {
		if old := e.project(p.ProjectID); old != nil {
			old.Project = p
			nodes = append(nodes, old)
			continue
		}
		nodes = append(nodes, &ProjectNode{Project: p})
	}
	e.projects = nodes
}

// setRuns replaces the run list, keeping node state for runs that are still
// present.
func (e *Explorer) setRuns(runs []models.Run) {
	nodes := make([]*RunNode, 0, len(runs))
	for _, r := range runs {
		if old := e.run(r.RunID); old != nil {
			old.Run = r
			nodes = append(nodes, old)
			continue
		}
		nodes = append(nodes, &RunNode{Run: r})
	}
	e.runs = nodes
}

func (e *Explorer) clearRuns() {
	e.runs = nil
	e.runsLoading = false
	e.runsSeq = 0
}

func (e *Explorer) clearSteps() {
	e.stepsLoading = false
	e.stepsSeq = 0
}
