package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"github.com/spf13/cobra"
)

type stepEvent struct {
	TestCaseName string `json:"TestCaseName"`
	StepNumber   int    `json:"stepNumber"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

func (c *Commands) runCommand() *cobra.Command {
	var (
		testCaseID string
		runID      string
		follow     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a simulated execution of a test case or a run",
		Long: "Trigger a simulated execution. No browser is driven: the server walks the steps, " +
			"records a log line per step and reports progress over the execution stream.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (testCaseID == "") == (runID == "") {
				return errors.New("pass exactly one of --test-case or --run")
			}
			ctx := cmd.Context()
			client, _, err := c.authenticated(ctx)
			if err != nil {
				return err
			}

			var exec *models.Execution
			if testCaseID != "" {
				exec, err = client.StartTestCase(ctx, testCaseID)
			} else {
				exec, err = client.StartRun(ctx, runID)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Execution %s queued: %s %s (%d steps, simulated)\n",
				exec.ExecutionID, exec.TargetType, exec.TargetName, exec.TotalSteps)
			if !follow {
				return nil
			}
			return client.StreamExecution(ctx, exec.ExecutionID, func(ev apiclient.Event) {
				printEvent(out, ev)
			})
		},
	}
	cmd.Flags().StringVar(&testCaseID, "test-case", "", "Test case id to execute")
	cmd.Flags().StringVar(&runID, "run", "", "Run id to execute")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream progress until the execution completes")
	return cmd
}

func printEvent(out io.Writer, ev apiclient.Event) {
	switch ev.Type {
	case apiclient.EventStepComplete:
		var p stepEvent
		if err := ev.Decode(&p); err != nil {
			return
		}
		fmt.Fprintf(out, "  %s · step %d %s %s\n", p.TestCaseName, p.StepNumber, p.Status, p.Message)
	case apiclient.EventExecutionComplete:
		var exec models.Execution
		if err := json.Unmarshal(ev.Payload, &exec); err != nil {
			return
		}
		fmt.Fprintf(out, "Execution %s: %d/%d steps\n", exec.Status, exec.CompletedSteps, exec.TotalSteps)
	}
}
