package simulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	ws "github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Broadcast(_ string, msgType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: msgType, Payload: payload})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func samplePlan() Plan {
	tc := models.TestCase{TestCaseID: "tc-1", TestCaseName: "Login"}
	return Plan{{
		TestCase: tc,
		Steps: []models.TestStep{
			{StepID: "s-1", TestCaseID: "tc-1", StepNumber: 1, TestSteps: "open page"},
			{StepID: "s-2", TestCaseID: "tc-1", StepNumber: 2, TestSteps: "click login"},
		},
	}}
}

func newExecution(t *testing.T, repo repository.ExecutionRepository) *models.Execution {
	t.Helper()
	exec := &models.Execution{
		ExecutionID: "exec-1",
		TargetType:  models.TargetTestCase,
		TargetID:    "tc-1",
		TargetName:  "Login",
		Status:      models.ExecutionQueued,
		Simulated:   true,
	}
	require.NoError(t, repo.Create(exec))
	return exec
}

func TestRunner_RunWalksEveryStep(t *testing.T) {
	db := setupDB(t)
	execRepo := repository.NewExecutionRepository(db)
	logRepo := repository.NewExecutionLogRepository(db)
	hub := &recorder{}
	runner := NewRunner(execRepo, logRepo, hub, 0, logging.Discard())

	exec := newExecution(t, execRepo)
	require.NoError(t, runner.Run(context.Background(), exec, samplePlan()))

	stored, err := execRepo.FindByID("exec-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.ExecutionCompleted, stored.Status)
	assert.Equal(t, 2, stored.TotalSteps)
	assert.Equal(t, 2, stored.CompletedSteps)
	assert.NotNil(t, stored.FinishedAt)

	logs, err := logRepo.FindByExecutionID("exec-1")
	require.NoError(t, err)
	var stepLogs []models.ExecutionLog
	for _, l := range logs {
		if l.StepID != "" {
			stepLogs = append(stepLogs, l)
		}
	}
	require.Len(t, stepLogs, 2)
	for i, l := range stepLogs {
		assert.Equal(t, i+1, l.StepNumber)
		assert.Equal(t, SimulatedMessage, l.Message)
		assert.Equal(t, models.StatusNotRun, l.Status)
	}

	types := hub.types()
	require.NotEmpty(t, types)
	assert.Equal(t, ws.EventExecutionStart, types[0])
	assert.Equal(t, ws.EventExecutionComplete, types[len(types)-1])
	assert.Contains(t, types, ws.EventStepStart)
	assert.Contains(t, types, ws.EventStepComplete)
	assert.Contains(t, types, ws.EventStepLog)
}

func TestRunner_RunLeavesStepStatusesAlone(t *testing.T) {
	db := setupDB(t)
	execRepo := repository.NewExecutionRepository(db)
	runner := NewRunner(execRepo, repository.NewExecutionLogRepository(db), nil, 0, logging.Discard())

	plan := samplePlan()
	plan[0].Steps[0].ExecutionStatus = models.StatusPass
	exec := newExecution(t, execRepo)
	require.NoError(t, runner.Run(context.Background(), exec, plan))

	assert.Equal(t, models.StatusPass, plan[0].Steps[0].ExecutionStatus)
}

func TestRunner_CancelledRunIsFailed(t *testing.T) {
	db := setupDB(t)
	execRepo := repository.NewExecutionRepository(db)
	runner := NewRunner(execRepo, repository.NewExecutionLogRepository(db), nil, time.Hour, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := newExecution(t, execRepo)
	require.NoError(t, runner.Run(ctx, exec, samplePlan()))

	stored, err := execRepo.FindByID("exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionFailed, stored.Status)
	assert.Equal(t, 0, stored.CompletedSteps)
	assert.NotEmpty(t, stored.Error)
}

func TestRunner_StartAndShutdown(t *testing.T) {
	db := setupDB(t)
	execRepo := repository.NewExecutionRepository(db)
	runner := NewRunner(execRepo, repository.NewExecutionLogRepository(db), nil, time.Hour, logging.Discard())

	exec := newExecution(t, execRepo)
	runner.Start(exec, samplePlan())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))

	stored, err := execRepo.FindByID("exec-1")
	require.NoError(t, err)
	assert.True(t, stored.Finished())
	assert.Equal(t, models.ExecutionQueued, exec.Status, "caller's copy is not mutated")
}

func TestPlan_TotalSteps(t *testing.T) {
	plan := append(samplePlan(), CaseSteps{Steps: make([]models.TestStep, 3)})
	assert.Equal(t, 5, plan.TotalSteps())
	assert.Equal(t, 0, Plan(nil).TotalSteps())
}
