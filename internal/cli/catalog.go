package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Pradeepvanguru/Testing-Tool/internal/editor"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/workspace"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"
)

// ErrTestCaseNotFound is returned when the ids given to a steps command do
// not name a test case of the run.
var ErrTestCaseNotFound = errors.New("test case not found")

func (c *Commands) openWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	client, store, err := c.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	return workspace.New(client, store, c.log()), nil
}

func (c *Commands) treeCommand() *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print projects, releases, runs and test cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			if err := ws.Load(ctx); err != nil {
				return err
			}

			label := func(name, id string) string {
				if showIDs {
					return fmt.Sprintf("%s (%s)", name, id)
				}
				return name
			}

			root := tree.Root("Projects")
			for _, node := range ws.Snapshot().Projects {
				p := node.Project
				if err := ws.SelectProject(ctx, p); err != nil {
					return err
				}
				projectTree := tree.Root(label(p.ProjectName, p.ProjectID))
				for _, r := range releasesOf(ws.Snapshot(), p.ProjectID) {
					if err := ws.SelectRelease(ctx, p, r); err != nil {
						return err
					}
					releaseTree := tree.Root(label(r.ReleaseName, r.ReleaseID))
					for _, runNode := range ws.Snapshot().Runs {
						if err := ws.SelectRun(ctx, runNode.Run); err != nil {
							return err
						}
						runTree := tree.Root(label(runNode.Run.RunName, runNode.Run.RunID))
						for _, tc := range ws.Snapshot().TestCases {
							runTree.Child(label(tc.TestCaseName, tc.TestCaseID))
						}
						releaseTree.Child(runTree)
					}
					projectTree.Child(releaseTree)
				}
				root.Child(projectTree)
			}
			fmt.Fprintln(cmd.OutOrStdout(), root.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show ids next to names")
	return cmd
}

func releasesOf(v workspace.View, projectID string) []models.Release {
	for _, node := range v.Projects {
		if node.Project.ProjectID == projectID {
			return node.Releases
		}
	}
	return nil
}

func (c *Commands) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find test cases by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			found, err := client.SearchTestCases(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No test cases found")
				return nil
			}
			t := table.New().Headers("Test case", "Project", "Release", "Run", "Id")
			for _, tc := range found {
				t.Row(tc.TestCaseName, tc.ProjectID, tc.ReleaseID, tc.RunID, tc.TestCaseID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

// ===== Steps =====

func (c *Commands) stepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps <project-id> <release-id> <run-id> <test-case-id>",
		Short: "Print the steps of a test case",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openTestCase(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stepsTable(ws.Snapshot().Rows))
			return nil
		},
	}
	cmd.AddCommand(c.stepsSetCommand())
	return cmd
}

func (c *Commands) stepsSetCommand() *cobra.Command {
	var (
		row    int
		values []string
		remove bool
	)
	cmd := &cobra.Command{
		Use:   "set <project-id> <release-id> <run-id> <test-case-id>",
		Short: "Edit one step row and save the table",
		Long: "Edit one step row and save the table. Rows are numbered from 1 in table order; " +
			"a row past the end is appended. Values are given as field=value, e.g. --value expectedResult=\"Page loads\".",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if row < 1 {
				return fmt.Errorf("--row must be at least 1")
			}
			if !remove && len(values) == 0 {
				return fmt.Errorf("nothing to change: pass --value or --delete")
			}
			ctx := cmd.Context()
			ws, err := c.openTestCase(ctx, args)
			if err != nil {
				return err
			}

			err = ws.Edit(func(e *editor.Editor) error {
				rows := e.Rows()
				if remove {
					if row > len(rows) {
						return editor.ErrUnknownRow
					}
					return e.DeleteRow(rows[row-1].ID)
				}
				for len(rows) < row {
					e.AddRow()
					rows = e.Rows()
				}
				return applyValues(e, rows[row-1].ID, values)
			})
			if err != nil {
				return err
			}
			if err := ws.SaveSteps(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Steps saved")
			fmt.Fprintln(cmd.OutOrStdout(), stepsTable(ws.Snapshot().Rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&row, "row", 1, "Row number")
	cmd.Flags().StringArrayVar(&values, "value", nil, "field=value to write, repeatable")
	cmd.Flags().BoolVar(&remove, "delete", false, "Delete the row instead of editing it")
	return cmd
}

// applyValues writes field=value pairs to a row. Free text goes through an
// edit session; enumerated fields are chosen directly.
func applyValues(e *editor.Editor, rowID string, values []string) error {
	for _, kv := range values {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid value %q: want field=value", kv)
		}
		field, err := editor.ParseField(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		if field.Enumerated() {
			if err := e.Choose(rowID, field, value); err != nil {
				return err
			}
			continue
		}
		if err := e.StartEdit(rowID, field); err != nil {
			return err
		}
		if err := e.Input(value); err != nil {
			return err
		}
		if err := e.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// openTestCase walks the selection down to the test case named by ids and
// loads its steps.
func (c *Commands) openTestCase(ctx context.Context, ids []string) (*workspace.Workspace, error) {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	p := models.Project{ProjectID: ids[0]}
	r := models.Release{ReleaseID: ids[1], ProjectID: ids[0]}
	run := models.Run{RunID: ids[2], ReleaseID: ids[1], ProjectID: ids[0]}

	if err := ws.SelectProject(ctx, p); err != nil {
		return nil, err
	}
	if err := ws.SelectRelease(ctx, p, r); err != nil {
		return nil, err
	}
	if err := ws.SelectRun(ctx, run); err != nil {
		return nil, err
	}
	for _, tc := range ws.Snapshot().TestCases {
		if tc.TestCaseID == ids[3] {
			return ws, ws.SelectTestCase(ctx, tc)
		}
	}
	return nil, ErrTestCaseNotFound
}

func stepsTable(rows []editor.Row) string {
	fields := editor.Fields()
	headers := []string{"#"}
	for _, f := range fields {
		headers = append(headers, f.String())
	}
	t := table.New().Headers(headers...)
	n := 0
	for _, row := range rows {
		num := "-"
		if row.Valid() {
			n++
			num = fmt.Sprint(n)
		}
		cells := []string{num}
		for _, f := range fields {
			cells = append(cells, f.Value(row.Step))
		}
		t.Row(cells...)
	}
	return t.Render()
}
