// Package tui is the terminal front end of the test-case manager.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/editor"
	"github.com/Pradeepvanguru/Testing-Tool/internal/explorer"
	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/session"
	"github.com/Pradeepvanguru/Testing-Tool/internal/workspace"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// AuthAPI is the account part of the API client.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*apiclient.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (*apiclient.AuthResult, error)
	Logout(ctx context.Context) error
}

// Streamer follows the live events of an execution.
type Streamer interface {
	StreamExecution(ctx context.Context, executionID string, fn func(apiclient.Event)) error
}

// Options wires the model to the client state.
type Options struct {
	Workspace *workspace.Workspace
	Session   *session.Store
	Auth      AuthAPI
	// Streamer may be nil; executions are then reported without progress.
	Streamer Streamer
	Logger   *log.Logger
}

type pane int

const (
	paneProjects pane = iota
	paneRuns
	paneSteps
)

type promptKind int

const (
	promptProject promptKind = iota
	promptRelease
	promptRun
	promptTestCase
)

type prompt struct {
	kind   promptKind
	parent string
	input  textinput.Model
}

// Model is the Bubble Tea model.
type Model struct {
	ctx     context.Context
	ws      *workspace.Workspace
	session *session.Store
	auth    AuthAPI
	stream  Streamer
	logger  *log.Logger

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	ready bool
	form  authForm

	pane       pane
	projCursor int
	runCursor  int
	rowCursor  int
	colCursor  int

	cell    textinput.Model
	editing bool
	prompt  *prompt

	execution *models.Execution
	progress  string

	toasts toasts
	width  int
	height int
}

// New creates the model. ctx bounds every network call it starts.
func New(ctx context.Context, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	cell := textinput.New()
	cell.CharLimit = 1024
	cell.Width = 40

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return Model{
		ctx:     ctx,
		ws:      opts.Workspace,
		session: opts.Session,
		auth:    opts.Auth,
		stream:  opts.Streamer,
		logger:  logger,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		form:    newAuthForm(),
		cell:    cell,
	}
}

// ===== Messages =====

type sessionReadyMsg struct{}

type authDoneMsg struct {
	result *apiclient.AuthResult
	err    error
}

type loggedOutMsg struct{ err error }

type fetchedMsg struct{ res explorer.Result }

type createdMsg struct {
	label string
	name  string
	err   error
}

type savedMsg struct{ err error }

type executionStartedMsg struct {
	execution *models.Execution
	err       error
}

type streamItem struct {
	event *apiclient.Event
	err   error
}

type streamMsg struct {
	item streamItem
	ch   <-chan streamItem
}

type streamClosedMsg struct{}

// ===== Init =====

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initSession(), m.spinner.Tick, toastTick())
}

func (m Model) initSession() tea.Cmd {
	store, ctx := m.session, m.ctx
	return func() tea.Msg {
		store.Init(ctx)
		return sessionReadyMsg{}
	}
}

// ===== Update =====

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastTickMsg:
		m.toasts.expire(time.Time(msg))
		return m, toastTick()

	case sessionReadyMsg:
		m.ready = true
		if m.session.Authenticated() {
			return m, m.fetch(m.ws.Refresh())
		}
		return m, nil

	case authDoneMsg:
		m.form.busy = false
		if msg.err != nil {
			m.toasts.push(toastError, msg.err.Error())
			return m, nil
		}
		if err := m.session.Login(msg.result.Token, msg.result.User); err != nil {
			m.toasts.push(toastError, err.Error())
			return m, nil
		}
		m.form = newAuthForm()
		m.toasts.push(toastSuccess, "Welcome, "+displayName(msg.result.User))
		return m, m.fetch(m.ws.Refresh())

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Warn("server logout failed", "err", msg.err)
		}
		if err := m.session.Logout(); err != nil {
			m.toasts.push(toastError, err.Error())
		}
		m.ws.Reset()
		m.resetCursors()
		m.execution = nil
		m.progress = ""
		m.toasts.push(toastInfo, "Logged out")
		return m, nil

	case fetchedMsg:
		if err := m.ws.Apply(msg.res); err != nil && !errors.Is(err, explorer.ErrStale) {
			m.toasts.push(toastError, fmt.Sprintf("failed to load %s: %v", msg.res.Fetch.Kind, err))
		}
		m.clampCursors()
		return m, nil

	case createdMsg:
		if msg.err != nil {
			m.toasts.push(toastError, msg.err.Error())
			return m, nil
		}
		m.toasts.push(toastSuccess, fmt.Sprintf("%s %q created", msg.label, msg.name))
		return m, nil

	case savedMsg:
		switch {
		case errors.Is(msg.err, explorer.ErrStale):
		case msg.err != nil:
			m.toasts.push(toastError, "save failed: "+msg.err.Error())
		case m.ws.Snapshot().Dirty:
			m.toasts.push(toastInfo, "Steps saved; later edits are not saved yet")
		default:
			m.toasts.push(toastSuccess, "Steps saved")
		}
		m.clampCursors()
		return m, nil

	case executionStartedMsg:
		if msg.err != nil {
			m.toasts.push(toastError, msg.err.Error())
			return m, nil
		}
		m.execution = msg.execution
		m.progress = fmt.Sprintf("%s %s queued (%d steps, simulated)", msg.execution.TargetType, msg.execution.TargetName, msg.execution.TotalSteps)
		m.toasts.push(toastInfo, "Execution started")
		return m, m.follow(msg.execution.ExecutionID)

	case streamMsg:
		if msg.item.err != nil {
			m.toasts.push(toastError, "stream: "+msg.item.err.Error())
			return m, waitStream(msg.ch)
		}
		m.handleEvent(*msg.item.event)
		return m, waitStream(msg.ch)

	case streamClosedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.cell, cmd = m.cell.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if !m.ready {
		return m, nil
	}
	if !m.session.Authenticated() {
		return m.handleAuthKey(msg)
	}
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}
	if m.editing {
		return m.handleCellKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextPane):
		m.pane = (m.pane + 1) % 3
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch(m.ws.Refresh())
	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.Run):
		return m, m.runSelected()
	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	}

	switch m.pane {
	case paneProjects:
		return m.handleProjectsKey(msg)
	case paneRuns:
		return m.handleRunsKey(msg)
	default:
		return m.handleStepsKey(msg)
	}
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.busy {
		return m, nil
	}
	form, cmd, submit := m.form.update(msg)
	m.form = form
	if !submit {
		return m, cmd
	}

	email := m.form.value(inputEmail)
	password := m.form.inputs[inputPassword].Value()
	username := m.form.value(inputUsername)
	if email == "" || password == "" || (m.form.mode == modeSignup && username == "") {
		m.toasts.push(toastError, "please fill in all fields")
		return m, nil
	}

	m.form.busy = true
	auth, ctx, mode := m.auth, m.ctx, m.form.mode
	return m, func() tea.Msg {
		var res *apiclient.AuthResult
		var err error
		if mode == modeSignup {
			res, err = auth.Register(ctx, username, email, password)
		} else {
			res, err = auth.Login(ctx, email, password)
		}
		return authDoneMsg{result: res, err: err}
	}
}

func (m Model) handleProjectsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := projectItems(m.ws.Snapshot())
	switch {
	case key.Matches(msg, m.keys.Up):
		m.projCursor = max(0, m.projCursor-1)
	case key.Matches(msg, m.keys.Down):
		m.projCursor = min(len(items)-1, m.projCursor+1)
	case key.Matches(msg, m.keys.New):
		m.openPrompt(promptProject, "")
	case key.Matches(msg, m.keys.NewChild):
		if item, ok := at(items, m.projCursor); ok {
			m.openPrompt(promptRelease, item.project.ProjectID)
		}
	case key.Matches(msg, m.keys.Toggle):
		if item, ok := at(items, m.projCursor); ok && item.kind == itemProject {
			return m, m.fetch(m.ws.ToggleProject(item.project.ProjectID))
		}
	case key.Matches(msg, m.keys.Select):
		item, ok := at(items, m.projCursor)
		if !ok {
			return m, nil
		}
		m.runCursor, m.rowCursor = 0, 0
		if item.kind == itemRelease {
			m.pane = paneRuns
			return m, m.fetch(m.ws.ChooseRelease(item.project, item.release))
		}
		return m, m.fetch(m.ws.ChooseProject(item.project))
	}
	return m, nil
}

func (m Model) handleRunsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := runItems(m.ws.Snapshot())
	switch {
	case key.Matches(msg, m.keys.Up):
		m.runCursor = max(0, m.runCursor-1)
	case key.Matches(msg, m.keys.Down):
		m.runCursor = min(len(items)-1, m.runCursor+1)
	case key.Matches(msg, m.keys.New):
		if m.ws.Selection().Release == nil {
			m.toasts.push(toastError, "select a release first")
			return m, nil
		}
		m.openPrompt(promptRun, "")
	case key.Matches(msg, m.keys.NewChild):
		if m.ws.Selection().Run == nil {
			m.toasts.push(toastError, "select a run first")
			return m, nil
		}
		m.openPrompt(promptTestCase, "")
	case key.Matches(msg, m.keys.Toggle):
		if item, ok := at(items, m.runCursor); ok && item.kind == itemRun {
			return m, m.fetch(m.ws.ToggleRun(item.run.RunID))
		}
	case key.Matches(msg, m.keys.Select):
		item, ok := at(items, m.runCursor)
		if !ok {
			return m, nil
		}
		m.rowCursor, m.colCursor = 0, 0
		if item.kind == itemTestCase {
			var runFetch tea.Cmd
			if sel := m.ws.Selection(); sel.Run == nil || sel.Run.RunID != item.run.RunID {
				runFetch = m.fetch(m.ws.ChooseRun(item.run))
			}
			m.pane = paneSteps
			return m, tea.Batch(runFetch, m.fetch(m.ws.ChooseTestCase(item.testCase)))
		}
		return m, m.fetch(m.ws.ChooseRun(item.run))
	}
	return m, nil
}

func (m Model) handleStepsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.ws.Snapshot()
	cols := editor.Fields()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.rowCursor = max(0, m.rowCursor-1)
	case key.Matches(msg, m.keys.Down):
		m.rowCursor = min(len(v.Rows)-1, m.rowCursor+1)
	case key.Matches(msg, m.keys.Left):
		m.colCursor = max(0, m.colCursor-1)
	case key.Matches(msg, m.keys.Right):
		m.colCursor = min(len(cols)-1, m.colCursor+1)
	case key.Matches(msg, m.keys.AddRow):
		if !m.editorLoaded() {
			return m, nil
		}
		_ = m.ws.Edit(func(ed *editor.Editor) error {
			ed.AddRow()
			return nil
		})
		m.rowCursor = len(v.Rows)
	case key.Matches(msg, m.keys.DeleteRow):
		if row, ok := rowAt(v.Rows, m.rowCursor); ok {
			m.notify(m.ws.Edit(func(ed *editor.Editor) error { return ed.DeleteRow(row.ID) }))
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.NextOption):
		row, ok := rowAt(v.Rows, m.rowCursor)
		field := cols[m.colCursor]
		if !ok || !field.Enumerated() {
			return m, nil
		}
		next := nextOption(field.Options(), field.Value(row.Step))
		m.notify(m.ws.Edit(func(ed *editor.Editor) error { return ed.Choose(row.ID, field, next) }))
	case key.Matches(msg, m.keys.Select):
		row, ok := rowAt(v.Rows, m.rowCursor)
		if !ok {
			return m, nil
		}
		field := cols[m.colCursor]
		var buffer string
		err := m.ws.Edit(func(ed *editor.Editor) error {
			if err := ed.StartEdit(row.ID, field); err != nil {
				return err
			}
			st, _ := ed.Editing()
			buffer = st.Buffer
			return nil
		})
		if err != nil {
			m.notify(err)
			return m, nil
		}
		m.editing = true
		m.cell.SetValue(buffer)
		m.cell.Placeholder = field.String()
		m.cell.CursorEnd()
		cmd := m.cell.Focus()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleCellKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := m.cell.Value()
		err := m.ws.Edit(func(ed *editor.Editor) error {
			if err := ed.Input(value); err != nil {
				return err
			}
			return ed.Commit()
		})
		if err != nil {
			m.notify(err)
			return m, nil
		}
		m.stopEditing()
		return m, nil
	case "esc":
		_ = m.ws.Edit(func(ed *editor.Editor) error { return ed.Cancel() })
		m.stopEditing()
		return m, nil
	}
	var cmd tea.Cmd
	m.cell, cmd = m.cell.Update(msg)
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = nil
		return m, nil
	case "enter":
		p := *m.prompt
		m.prompt = nil
		return m, m.create(p.kind, p.parent, p.input.Value())
	}
	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}

// ===== Commands =====

func (m Model) fetch(f *explorer.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		return fetchedMsg{res: ws.Execute(ctx, f)}
	}
}

func (m Model) create(kind promptKind, parent, name string) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		var err error
		var label string
		switch kind {
		case promptProject:
			label = "Project"
			_, err = ws.CreateProject(ctx, name)
		case promptRelease:
			label = "Release"
			_, err = ws.CreateRelease(ctx, parent, name)
		case promptRun:
			label = "Run"
			_, err = ws.CreateRun(ctx, name)
		case promptTestCase:
			label = "Test case"
			_, err = ws.CreateTestCase(ctx, name)
		}
		return createdMsg{label: label, name: name, err: err}
	}
}

func (m Model) save() tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		return savedMsg{err: ws.SaveSteps(ctx)}
	}
}

func (m Model) runSelected() tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		exec, err := ws.RunSelected(ctx)
		return executionStartedMsg{execution: exec, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	auth, ctx := m.auth, m.ctx
	return func() tea.Msg {
		return loggedOutMsg{err: auth.Logout(ctx)}
	}
}

// follow streams execution events into the program one message at a time.
func (m Model) follow(executionID string) tea.Cmd {
	if m.stream == nil {
		return nil
	}
	ch := make(chan streamItem, 64)
	stream, ctx := m.stream, m.ctx
	go func() {
		defer close(ch)
		err := stream.StreamExecution(ctx, executionID, func(ev apiclient.Event) {
			ch <- streamItem{event: &ev}
		})
		if err != nil && ctx.Err() == nil {
			ch <- streamItem{err: err}
		}
	}()
	return waitStream(ch)
}

func waitStream(ch <-chan streamItem) tea.Cmd {
	return func() tea.Msg {
		item, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return streamMsg{item: item, ch: ch}
	}
}

// ===== Helpers =====

type stepPayload struct {
	TestCaseName string `json:"TestCaseName"`
	StepNumber   int    `json:"stepNumber"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

func (m *Model) handleEvent(ev apiclient.Event) {
	switch ev.Type {
	case apiclient.EventStepStart, apiclient.EventStepComplete:
		var p stepPayload
		if err := ev.Decode(&p); err != nil {
			m.logger.Debug("undecodable step event", "err", err)
			return
		}
		verb := "running"
		if ev.Type == apiclient.EventStepComplete {
			verb = "done"
		}
		m.progress = fmt.Sprintf("%s · step %d %s (%s %s)", p.TestCaseName, p.StepNumber, verb, p.Status, p.Message)
	case apiclient.EventExecutionComplete:
		var exec models.Execution
		if err := json.Unmarshal(ev.Payload, &exec); err == nil && exec.ExecutionID != "" {
			m.execution = &exec
		}
		if m.execution != nil {
			m.progress = fmt.Sprintf("execution %s: %d/%d steps", m.execution.Status, m.execution.CompletedSteps, m.execution.TotalSteps)
			m.toasts.push(toastSuccess, "Execution "+m.execution.Status)
		}
	}
}

func (m *Model) openPrompt(kind promptKind, parent string) {
	ti := textinput.New()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = "name"
	ti.Focus()
	m.prompt = &prompt{kind: kind, parent: parent, input: ti}
}

func (m *Model) stopEditing() {
	m.editing = false
	m.cell.Blur()
	m.cell.SetValue("")
}

func (m *Model) notify(err error) {
	if err != nil {
		m.toasts.push(toastError, err.Error())
	}
}

func (m *Model) resetCursors() {
	m.pane = paneProjects
	m.projCursor, m.runCursor, m.rowCursor, m.colCursor = 0, 0, 0, 0
}

func (m *Model) clampCursors() {
	v := m.ws.Snapshot()
	m.projCursor = clamp(m.projCursor, len(projectItems(v)))
	m.runCursor = clamp(m.runCursor, len(runItems(v)))
	m.rowCursor = clamp(m.rowCursor, len(v.Rows))
}

func (m Model) editorLoaded() bool {
	loaded := false
	_ = m.ws.Edit(func(ed *editor.Editor) error {
		loaded = ed.Loaded()
		return nil
	})
	return loaded
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	return max(0, cursor)
}

func nextOption(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func rowAt(rows []editor.Row, i int) (editor.Row, bool) {
	if i < 0 || i >= len(rows) {
		return editor.Row{}, false
	}
	return rows[i], true
}
