package simulator

import (
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	ws "github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/charmbracelet/log"
)

// StepLogger records execution log lines. step is nil for lines that concern
// the execution as a whole.
type StepLogger interface {
	Info(step *models.TestStep, message string)
	Warn(step *models.TestStep, message string)
	Error(step *models.TestStep, message string)
}

// Broadcaster fans events out to stream subscribers.
type Broadcaster interface {
	Broadcast(executionID string, msgType string, payload interface{})
}

// DatabaseStepLogger logs to database
type DatabaseStepLogger struct {
	repo        repository.ExecutionLogRepository
	executionID string
	logger      *log.Logger
	now         func() time.Time
}

// NewDatabaseStepLogger creates a database logger
func NewDatabaseStepLogger(repo repository.ExecutionLogRepository, executionID string, logger *log.Logger) *DatabaseStepLogger {
	return &DatabaseStepLogger{
		repo:        repo,
		executionID: executionID,
		logger:      logger,
		now:         time.Now,
	}
}

func (l *DatabaseStepLogger) write(level string, step *models.TestStep, message string) *models.ExecutionLog {
	entry := &models.ExecutionLog{
		ExecutionID: l.executionID,
		Level:       level,
		Message:     message,
		Status:      models.StatusNotRun,
		Timestamp:   l.now(),
	}
	if step != nil {
		entry.StepID = step.StepID
		entry.StepNumber = step.StepNumber
		entry.Payload = models.JSONB{"testCaseId": step.TestCaseID}
	}
	if err := l.repo.Create(entry); err != nil {
		l.logger.Error("failed to write execution log", "executionId", l.executionID, "err", err)
	}
	l.logger.Debug(message, "executionId", l.executionID, "level", level, "step", entry.StepNumber)
	return entry
}

func (l *DatabaseStepLogger) Info(step *models.TestStep, message string) {
	l.write("info", step, message)
}

func (l *DatabaseStepLogger) Warn(step *models.TestStep, message string) {
	l.write("warn", step, message)
}

func (l *DatabaseStepLogger) Error(step *models.TestStep, message string) {
	l.write("error", step, message)
}

// BroadcastStepLogger logs to database and broadcasts via WebSocket
type BroadcastStepLogger struct {
	*DatabaseStepLogger
	hub Broadcaster
}

// NewBroadcastStepLogger creates a logger that broadcasts events
func NewBroadcastStepLogger(db *DatabaseStepLogger, hub Broadcaster) *BroadcastStepLogger {
	return &BroadcastStepLogger{DatabaseStepLogger: db, hub: hub}
}

func (l *BroadcastStepLogger) log(level string, step *models.TestStep, message string) {
	entry := l.write(level, step, message)
	if l.hub != nil {
		l.hub.Broadcast(l.executionID, ws.EventStepLog, entry)
	}
}

func (l *BroadcastStepLogger) Info(step *models.TestStep, message string) {
	l.log("info", step, message)
}

func (l *BroadcastStepLogger) Warn(step *models.TestStep, message string) {
	l.log("warn", step, message)
}

func (l *BroadcastStepLogger) Error(step *models.TestStep, message string) {
	l.log("error", step, message)
}
