package cli

import (
	"fmt"

	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/tui"
	"github.com/Pradeepvanguru/Testing-Tool/internal/workspace"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (c *Commands) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive test case manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The terminal belongs to the UI; logs go to a file.
			opts := logging.DefaultOptions()
			opts.Level = c.cfg.LogLevel
			opts.Prefix = "tui"
			logger, closer, err := logging.NewFile(c.logPath(), opts)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer closer.Close()

			client, store := c.connect(logger)
			ws := workspace.New(client, store, logger)
			model := tui.New(cmd.Context(), tui.Options{
				Workspace: ws,
				Session:   store,
				Auth:      client,
				Streamer:  client,
				Logger:    logger,
			})

			logger.Info("Starting", "api", c.cfg.APIURL)
			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}
}
