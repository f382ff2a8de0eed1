package tui

import (
	"fmt"
	"strings"

	"github.com/Pradeepvanguru/Testing-Tool/internal/editor"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/workspace"

	"github.com/charmbracelet/lipgloss"
)

const cellWidth = 14

type itemKind int

const (
	itemProject itemKind = iota
	itemRelease
	itemRun
	itemTestCase
)

// treeItem is one visible line of a tree pane.
type treeItem struct {
	kind     itemKind
	project  models.Project
	release  models.Release
	run      models.Run
	testCase models.TestCase
	expanded bool
	loading  bool
}

// projectItems flattens the project tree: projects with the releases of
// expanded nodes beneath them.
func projectItems(v workspace.View) []treeItem {
	var items []treeItem
	for _, node := range v.Projects {
		items = append(items, treeItem{kind: itemProject, project: node.Project, expanded: node.Expanded, loading: node.Loading})
		if !node.Expanded {
			continue
		}
		for _, r := range node.Releases {
			items = append(items, treeItem{kind: itemRelease, project: node.Project, release: r})
		}
	}
	return items
}

// runItems flattens the runs of the selected release with the test cases
// of expanded runs.
func runItems(v workspace.View) []treeItem {
	var items []treeItem
	for _, node := range v.Runs {
		items = append(items, treeItem{kind: itemRun, run: node.Run, expanded: node.Expanded, loading: node.Loading})
		if !node.Expanded {
			continue
		}
		for _, tc := range node.TestCases {
			items = append(items, treeItem{kind: itemTestCase, run: node.Run, testCase: tc})
		}
	}
	return items
}

func at(items []treeItem, i int) (treeItem, bool) {
	if i < 0 || i >= len(items) {
		return treeItem{}, false
	}
	return items[i], true
}

// View renders the model.
func (m Model) View() string {
	if !m.ready || m.session.Loading() {
		return fmt.Sprintf("\n  %s Restoring session...\n", m.spinner.View())
	}
	if !m.session.Authenticated() {
		return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Testing Tool"), "", m.form.view(), "", m.toasts.view())
	}

	v := m.ws.Snapshot()
	header := titleStyle.Render("Testing Tool") + dimStyle.Render("  signed in as "+displayName(m.session.User()))

	left := m.renderPane(paneProjects, "Projects", m.projectsView(v))
	middle := m.renderPane(paneRuns, "Runs", m.runsView(v))
	top := lipgloss.JoinHorizontal(lipgloss.Top, left, middle)
	steps := m.renderPane(paneSteps, m.stepsTitle(v), m.stepsView(v))

	parts := []string{header, top, steps}
	if m.prompt != nil {
		parts = append(parts, headerStyle.Render(promptLabel(m.prompt.kind))+" "+m.prompt.input.View())
	}
	if m.progress != "" {
		parts = append(parts, activeStyle.Render(m.progress))
	}
	parts = append(parts, m.help.View(m.keys))
	if t := m.toasts.view(); t != "" {
		parts = append(parts, t)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderPane(p pane, title, body string) string {
	style := paneStyle
	if m.pane == p {
		style = focusedPaneStyle
	}
	return style.Render(headerStyle.Render(title) + "\n" + body)
}

func (m Model) projectsView(v workspace.View) string {
	if v.ProjectsLoading && len(v.Projects) == 0 {
		return m.spinner.View() + " loading"
	}
	items := projectItems(v)
	if len(items) == 0 {
		return dimStyle.Render("no projects (n to create)")
	}
	sel := v.Selection.Key()
	lines := make([]string, len(items))
	for i, item := range items {
		var text string
		switch item.kind {
		case itemProject:
			text = marker(item) + item.project.ProjectName
			if item.project.ProjectID == sel.ProjectID {
				text = activeStyle.Render(text)
			}
		case itemRelease:
			text = "   " + item.release.ReleaseName
			if item.release.ReleaseID == sel.ReleaseID {
				text = activeStyle.Render(text)
			}
		}
		lines[i] = m.cursorLine(paneProjects, i == m.projCursor, text)
	}
	return strings.Join(lines, "\n")
}

func (m Model) runsView(v workspace.View) string {
	if v.Selection.Release == nil {
		return dimStyle.Render("select a release")
	}
	if v.RunsLoading {
		return m.spinner.View() + " loading"
	}
	items := runItems(v)
	if len(items) == 0 {
		return dimStyle.Render("no runs (n to create)")
	}
	sel := v.Selection.Key()
	lines := make([]string, len(items))
	for i, item := range items {
		var text string
		switch item.kind {
		case itemRun:
			text = marker(item) + item.run.RunName
			if item.run.RunID == sel.RunID {
				text = activeStyle.Render(text)
			}
		case itemTestCase:
			text = "   " + item.testCase.TestCaseName
			if item.testCase.TestCaseID == sel.TestCaseID {
				text = activeStyle.Render(text)
			}
		}
		lines[i] = m.cursorLine(paneRuns, i == m.runCursor, text)
	}
	return strings.Join(lines, "\n")
}

func (m Model) stepsTitle(v workspace.View) string {
	if v.Selection.TestCase == nil {
		return "Steps"
	}
	title := "Steps · " + v.Selection.TestCase.TestCaseName
	if v.Dirty {
		title += " *"
	}
	return title
}

func (m Model) stepsView(v workspace.View) string {
	if v.Selection.TestCase == nil {
		return dimStyle.Render("select a test case")
	}
	if v.StepsLoading {
		return m.spinner.View() + " loading"
	}

	cols := editor.Fields()
	var b strings.Builder
	header := []string{pad("#", 3)}
	for _, f := range cols {
		header = append(header, pad(f.String(), cellWidth))
	}
	b.WriteString(dimStyle.Render(strings.Join(header, " ")))

	for r, row := range v.Rows {
		b.WriteString("\n")
		num := "-"
		if row.Valid() {
			num = fmt.Sprint(validIndex(v.Rows, r))
		}
		cells := []string{pad(num, 3)}
		for c, f := range cols {
			text := f.Value(row.Step)
			style := lipgloss.NewStyle()
			if f == editor.FieldExecutionStatus {
				style = statusStyles[row.Step.ExecutionStatus]
			}
			if v.Editing != nil && v.Editing.RowID == row.ID && v.Editing.Field == f {
				text = m.cell.Value()
				style = editStyle
			}
			cell := style.Render(pad(text, cellWidth))
			if m.pane == paneSteps && r == m.rowCursor && c == m.colCursor {
				cell = selectedStyle.Render(pad(text, cellWidth))
			}
			cells = append(cells, cell)
		}
		b.WriteString(strings.Join(cells, " "))
	}

	if m.editing {
		b.WriteString("\n\n" + m.cell.View())
	}
	return b.String()
}

func (m Model) cursorLine(p pane, current bool, text string) string {
	if current && m.pane == p {
		return selectedStyle.Render("> ") + text
	}
	return "  " + text
}

func marker(item treeItem) string {
	switch {
	case item.loading:
		return "… "
	case item.expanded:
		return "▾ "
	default:
		return "▸ "
	}
}

func promptLabel(kind promptKind) string {
	switch kind {
	case promptProject:
		return "New project:"
	case promptRelease:
		return "New release:"
	case promptRun:
		return "New run:"
	default:
		return "New test case:"
	}
}

// validIndex is the step number row r will get on save.
func validIndex(rows []editor.Row, r int) int {
	n := 0
	for i := 0; i <= r; i++ {
		if rows[i].Valid() {
			n++
		}
	}
	return n
}

func pad(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}
