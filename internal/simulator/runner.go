// Package simulator walks the steps of a test case or run without driving a
// browser, recording progress the way a real engine would report it.
package simulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	ws "github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/charmbracelet/log"
)

// SimulatedMessage is logged for every step the simulator walks.
const SimulatedMessage = "simulated"

// CaseSteps is one test case of an execution plan with its ordered steps.
type CaseSteps struct {
	TestCase models.TestCase
	Steps    []models.TestStep
}

// Plan is the ordered work of one execution.
type Plan []CaseSteps

// TotalSteps counts the steps across every case.
func (p Plan) TotalSteps() int {
	n := 0
	for _, c := range p {
		n += len(c.Steps)
	}
	return n
}

// StepEvent is the payload of step_start and step_complete events.
type StepEvent struct {
	TestCaseID   string                 `json:"TestCaseID"`
	TestCaseName string                 `json:"TestCaseName"`
	StepID       string                 `json:"StepID"`
	StepNumber   int                    `json:"stepNumber"`
	Status       models.ExecutionStatus `json:"status"`
	Message      string                 `json:"message,omitempty"`
}

// Runner executes plans in the background.
type Runner struct {
	executions repository.ExecutionRepository
	logs       repository.ExecutionLogRepository
	hub        Broadcaster
	delay      time.Duration
	logger     *log.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner. hub may be nil.
func NewRunner(
	executions repository.ExecutionRepository,
	logs repository.ExecutionLogRepository,
	hub Broadcaster,
	delay time.Duration,
	logger *log.Logger,
) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		executions: executions,
		logs:       logs,
		hub:        hub,
		delay:      delay,
		logger:     logger,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start runs plan for exec in a new goroutine and returns immediately.
func (r *Runner) Start(exec *models.Execution, plan Plan) {
	// The goroutine owns its copy; callers keep the one they return to clients.
	own := *exec
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Run(r.ctx, &own, plan); err != nil {
			r.logger.Error("execution failed", "executionId", own.ExecutionID, "err", err)
		}
	}()
}

// Shutdown cancels running executions and waits for them to record their
// final state, or for ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run walks plan synchronously, persisting progress on exec.
func (r *Runner) Run(ctx context.Context, exec *models.Execution, plan Plan) error {
	stepLog := r.stepLogger(exec.ExecutionID)

	exec.Status = models.ExecutionRunning
	exec.TotalSteps = plan.TotalSteps()
	if exec.StartedAt.IsZero() {
		exec.StartedAt = r.now()
	}
	if err := r.executions.Update(exec); err != nil {
		return fmt.Errorf("failed to mark execution running: %w", err)
	}
	r.broadcast(exec.ExecutionID, ws.EventExecutionStart, exec)
	stepLog.Info(nil, fmt.Sprintf("simulating %s %q: %d steps", exec.TargetType, exec.TargetName, exec.TotalSteps))

	var runErr error
walk:
	for _, c := range plan {
		for i := range c.Steps {
			step := &c.Steps[i]
			event := StepEvent{
				TestCaseID:   c.TestCase.TestCaseID,
				TestCaseName: c.TestCase.TestCaseName,
				StepID:       step.StepID,
				StepNumber:   step.StepNumber,
				Status:       models.StatusNotRun,
			}
			r.broadcast(exec.ExecutionID, ws.EventStepStart, event)

			if err := r.pause(ctx); err != nil {
				runErr = err
				break walk
			}

			stepLog.Info(step, SimulatedMessage)
			event.Message = SimulatedMessage
			r.broadcast(exec.ExecutionID, ws.EventStepComplete, event)

			exec.CompletedSteps++
			if err := r.executions.Update(exec); err != nil {
				r.logger.Warn("failed to record progress", "executionId", exec.ExecutionID, "err", err)
			}
		}
	}

	finished := r.now()
	exec.FinishedAt = &finished
	if runErr != nil {
		exec.Status = models.ExecutionFailed
		exec.Error = runErr.Error()
		stepLog.Error(nil, "execution cancelled: "+runErr.Error())
	} else {
		exec.Status = models.ExecutionCompleted
		stepLog.Info(nil, "execution completed")
	}
	if err := r.executions.Update(exec); err != nil {
		return fmt.Errorf("failed to record execution result: %w", err)
	}
	r.broadcast(exec.ExecutionID, ws.EventExecutionComplete, exec)
	r.logger.Info("execution finished", "executionId", exec.ExecutionID, "status", exec.Status, "steps", exec.CompletedSteps)
	return nil
}

func (r *Runner) pause(ctx context.Context) error {
	if r.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Runner) stepLogger(executionID string) StepLogger {
	db := NewDatabaseStepLogger(r.logs, executionID, r.logger)
	if r.hub == nil {
		return db
	}
	return NewBroadcastStepLogger(db, r.hub)
}

func (r *Runner) broadcast(executionID, msgType string, payload interface{}) {
	if r.hub == nil {
		return
	}
	if exec, ok := payload.(*models.Execution); ok {
		// Subscribers read the payload after Run keeps mutating exec.
		snapshot := *exec
		payload = &snapshot
	}
	r.hub.Broadcast(executionID, msgType, payload)
}
