package tui

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/explorer"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/session"
	"github.com/Pradeepvanguru/Testing-Tool/internal/workspace"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	saved    []apiclient.StepsPayload
	password string
	loggedIn bool
}

func (f *fakeBackend) ListProjects(ctx context.Context) ([]models.Project, error) {
	return []models.Project{{ProjectID: "P1", ProjectName: "Alpha"}}, nil
}

func (f *fakeBackend) ListReleases(ctx context.Context, projectID string) ([]models.Release, error) {
	return []models.Release{{ReleaseID: "R1", ReleaseName: "1.0", ProjectID: projectID}}, nil
}

func (f *fakeBackend) ListRuns(ctx context.Context, projectID, releaseID string) ([]models.Run, error) {
	return []models.Run{{RunID: "Run1", RunName: "Smoke", ReleaseID: releaseID, ProjectID: projectID}}, nil
}

func (f *fakeBackend) ListTestCases(ctx context.Context, projectID, releaseID, runID string) ([]models.TestCase, error) {
	return []models.TestCase{{TestCaseID: "TC1", TestCaseName: "Login", RunID: runID, ReleaseID: releaseID, ProjectID: projectID}}, nil
}

func (f *fakeBackend) ListSteps(ctx context.Context, projectID, releaseID, runID, testCaseID string) ([]models.TestStep, error) {
	return nil, nil
}

func (f *fakeBackend) SaveSteps(ctx context.Context, payload apiclient.StepsPayload) ([]models.TestStep, error) {
	f.saved = append(f.saved, payload)
	out := append([]models.TestStep(nil), payload.Steps...)
	for i := range out {
		out[i].StepID = "S" + string(rune('1'+i))
	}
	return out, nil
}

func (f *fakeBackend) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	return &models.Project{ProjectID: "P2", ProjectName: name}, nil
}

func (f *fakeBackend) CreateRelease(ctx context.Context, projectID, name string) (*models.Release, error) {
	return &models.Release{ReleaseID: "R2", ReleaseName: name}, nil
}

func (f *fakeBackend) CreateRun(ctx context.Context, projectID, releaseID, name string) (*models.Run, error) {
	return &models.Run{RunID: "Run2", RunName: name}, nil
}

func (f *fakeBackend) CreateTestCase(ctx context.Context, projectID, releaseID, runID, name string) (*models.TestCase, error) {
	return &models.TestCase{TestCaseID: "TC2", TestCaseName: name}, nil
}

func (f *fakeBackend) StartTestCase(ctx context.Context, testCaseID string) (*models.Execution, error) {
	return &models.Execution{ExecutionID: "E1", TargetType: models.TargetTestCase, TargetID: testCaseID, TargetName: "Login", TotalSteps: 1, Simulated: true}, nil
}

func (f *fakeBackend) StartRun(ctx context.Context, runID string) (*models.Execution, error) {
	return &models.Execution{ExecutionID: "E2", TargetType: models.TargetRun, TargetID: runID, Simulated: true}, nil
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*apiclient.AuthResult, error) {
	if password != f.password {
		return nil, &apiclient.Error{Status: http.StatusUnauthorized, Message: "invalid email or password"}
	}
	f.loggedIn = true
	return &apiclient.AuthResult{Token: "tok", User: &models.User{UserID: "u-1", Username: "alice", Email: email}}, nil
}

func (f *fakeBackend) Register(ctx context.Context, username, email, password string) (*apiclient.AuthResult, error) {
	return &apiclient.AuthResult{Token: "tok", User: &models.User{UserID: "u-2", Username: username, Email: email}}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error { return nil }

type noProfile struct{}

func (noProfile) Profile(ctx context.Context) (*models.User, error) { return nil, nil }

func newTestModel(t *testing.T) (Model, *fakeBackend, *session.Store) {
	t.Helper()
	backend := &fakeBackend{password: "secret"}
	store := session.NewStore(&session.MemoryTokenStore{}, noProfile{}, nil)
	ws := workspace.New(backend, store, nil)
	m := New(context.Background(), Options{Workspace: ws, Session: store, Auth: backend})
	m = update(t, m, m.initSession()())
	return m, backend, store
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

// drain runs cmd and feeds back the messages the model produces for
// network work. Commands that do not finish promptly (cursor blink, ticks)
// are abandoned.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var out tea.Msg
	select {
	case out = <-done:
	case <-time.After(250 * time.Millisecond):
		return m
	}
	switch msg := out.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
		return m
	case fetchedMsg, authDoneMsg, loggedOutMsg, createdMsg, savedMsg, executionStartedMsg, sessionReadyMsg:
		return update(t, m, msg)
	default:
		return m
	}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.handleKey(k)
		m = drain(t, next.(Model), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func login(t *testing.T, m Model) Model {
	t.Helper()
	return press(t, m, runes("alice@example.com"), enter, runes("secret"), enter)
}

func TestView_LoadingHidesContent(t *testing.T) {
	backend := &fakeBackend{}
	store := session.NewStore(&session.MemoryTokenStore{}, noProfile{}, nil)
	m := New(context.Background(), Options{Workspace: workspace.New(backend, store, nil), Session: store, Auth: backend})

	assert.Contains(t, m.View(), "Restoring session")
	next, _ := m.handleKey(runes("x"))
	assert.False(t, next.(Model).ready)
}

func TestAuth_EmptyFieldsRejected(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Contains(t, m.View(), "Log in")

	m = press(t, m, enter, enter)
	require.NotEmpty(t, m.toasts.items)
	assert.Equal(t, "please fill in all fields", m.toasts.items[0].text)
}

func TestAuth_InvalidLoginShowsServerMessage(t *testing.T) {
	m, _, store := newTestModel(t)
	m = press(t, m, runes("alice@example.com"), enter, runes("wrong"), enter)

	assert.Nil(t, store.User())
	require.NotEmpty(t, m.toasts.items)
	last := m.toasts.items[len(m.toasts.items)-1]
	assert.Equal(t, toastError, last.kind)
	assert.Equal(t, "invalid email or password", last.text)
	assert.False(t, m.form.busy)
}

func TestAuth_SignupMode(t *testing.T) {
	m, _, store := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, modeSignup, m.form.mode)
	assert.Contains(t, m.View(), "Sign up")

	m = press(t, m, runes("bob"), tab, runes("bob@example.com"), tab, runes("pw1234"), enter)
	require.True(t, store.Authenticated())
	assert.Equal(t, "bob", store.User().Username)
}

func TestDrillDownEditAndSave(t *testing.T) {
	m, backend, store := newTestModel(t)
	m = login(t, m)
	require.True(t, store.Authenticated())
	assert.Contains(t, m.View(), "Alpha")

	// Project → release.
	m = press(t, m, enter)
	v := m.ws.Snapshot()
	require.Len(t, v.Projects[0].Releases, 1)
	m = press(t, m, down, enter)
	assert.Equal(t, paneRuns, m.pane)
	assert.Equal(t, "R1", m.ws.Selection().Release.ReleaseID)

	// Run → test case.
	m = press(t, m, enter)
	require.Len(t, m.ws.Snapshot().TestCases, 1)
	m = press(t, m, down, enter)
	assert.Equal(t, paneSteps, m.pane)
	v = m.ws.Snapshot()
	assert.Equal(t, "TC1", v.Selection.TestCase.TestCaseID)
	require.Len(t, v.Rows, 5, "empty test case shows placeholders")

	// Edit the first cell and commit.
	next, _ := m.handleKey(enter)
	m = next.(Model)
	require.True(t, m.editing)
	m = press(t, m, runes("open login page"), enter)
	assert.False(t, m.editing)
	v = m.ws.Snapshot()
	assert.Equal(t, "open login page", v.Rows[0].Step.TestSteps)
	assert.True(t, v.Dirty)

	m = press(t, m, runes("s"))
	require.Len(t, backend.saved, 1)
	require.Len(t, backend.saved[0].Steps, 1)
	assert.Equal(t, 1, backend.saved[0].Steps[0].StepNumber)
	assert.False(t, m.ws.Snapshot().Dirty)
	assert.Equal(t, "Steps saved", m.toasts.items[len(m.toasts.items)-1].text)
}

func TestEditCancelAndInvalidEnum(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = login(t, m)
	m = press(t, m, enter, down, enter, enter, down, enter)
	require.Equal(t, paneSteps, m.pane)

	// Move to executionStatus (last column) and type an invalid value.
	for i := 0; i < 8; i++ {
		m = press(t, m, runes("l"))
	}
	next, _ := m.handleKey(enter)
	m = next.(Model)
	m.cell.SetValue("MAYBE")
	m = press(t, m, enter)
	assert.True(t, m.editing, "invalid value keeps the cell open")
	assert.Contains(t, m.toasts.items[len(m.toasts.items)-1].text, "value outside vocabulary")

	m = press(t, m, esc)
	assert.False(t, m.editing)
	assert.Equal(t, models.StatusNotRun, m.ws.Snapshot().Rows[0].Step.ExecutionStatus)

	m = press(t, m, runes("o"))
	assert.Equal(t, models.StatusPass, m.ws.Snapshot().Rows[0].Step.ExecutionStatus)
}

func TestAddAndDeleteRows(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = login(t, m)
	m = press(t, m, enter, down, enter, enter, down, enter)

	m = press(t, m, runes("a"))
	assert.Len(t, m.ws.Snapshot().Rows, 6)
	assert.Equal(t, 5, m.rowCursor)

	m = press(t, m, runes("d"), runes("d"))
	assert.Len(t, m.ws.Snapshot().Rows, 4)
	assert.Equal(t, 3, m.rowCursor)
}

func TestStaleFetchIgnored(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = login(t, m)

	old := m.ws.Refresh()
	current := m.ws.Refresh()
	m = update(t, m, fetchedMsg{res: explorer.Result{Fetch: *current, Projects: []models.Project{{ProjectID: "P9", ProjectName: "Fresh"}}}})
	m = update(t, m, fetchedMsg{res: explorer.Result{Fetch: *old, Projects: []models.Project{{ProjectID: "P0", ProjectName: "Old"}}}})

	v := m.ws.Snapshot()
	require.Len(t, v.Projects, 1)
	assert.Equal(t, "P9", v.Projects[0].Project.ProjectID)
	for _, item := range m.toasts.items {
		assert.NotContains(t, item.text, "failed to load")
	}
}

func TestCreateProjectPrompt(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = login(t, m)

	m = press(t, m, runes("n"))
	require.NotNil(t, m.prompt)
	assert.Contains(t, m.View(), "New project:")

	m = press(t, m, enter)
	assert.Nil(t, m.prompt)
	assert.Equal(t, workspace.ErrNameRequired.Error(), m.toasts.items[len(m.toasts.items)-1].text)

	m = press(t, m, runes("n"), runes("Beta"), enter)
	assert.Equal(t, `Project "Beta" created`, m.toasts.items[len(m.toasts.items)-1].text)
}

func TestRunRequiresSelection(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = login(t, m)

	m = press(t, m, runes("r"))
	assert.Equal(t, workspace.ErrNothingSelected.Error(), m.toasts.items[len(m.toasts.items)-1].text)

	m = press(t, m, enter, down, enter, enter)
	m = press(t, m, runes("r"))
	require.NotNil(t, m.execution)
	assert.Equal(t, models.TargetRun, m.execution.TargetType)
	assert.True(t, strings.Contains(m.progress, "simulated"))
}

func TestLogoutClearsState(t *testing.T) {
	m, _, store := newTestModel(t)
	m = login(t, m)
	m = press(t, m, enter)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.False(t, store.Authenticated())
	assert.Empty(t, m.ws.Snapshot().Projects)
	assert.Contains(t, m.View(), "Log in")
}

func TestToastsExpire(t *testing.T) {
	var ts toasts
	for i := 0; i < maxToasts+2; i++ {
		ts.push(toastInfo, "n")
	}
	assert.Len(t, ts.items, maxToasts)

	ts.expire(ts.items[0].expires.Add(1))
	assert.Empty(t, ts.items)
	assert.Empty(t, ts.view())
}
