package tui

import (
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("37"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Background(lipgloss.Color("236"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	editStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Underline(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("39"))

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(1, 2)

	toastStyles = map[toastKind]lipgloss.Style{
		toastInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("25")).Padding(0, 1),
		toastSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("42")).Padding(0, 1),
		toastError:   lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("160")).Padding(0, 1),
	}

	statusStyles = map[models.ExecutionStatus]lipgloss.Style{
		models.StatusPass:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		models.StatusFail:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.StatusBlocked: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusNotRun:  dimStyle,
	}
)
