package models

import "time"

// Execution target kinds.
const (
	TargetTestCase = "testcase"
	TargetRun      = "run"
)

// Execution lifecycle states.
const (
	ExecutionQueued    = "queued"
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// Execution records one simulated run of a test case or of every test case
// in a run.
type Execution struct {
	ID             uint       `gorm:"primaryKey" json:"-"`
	ExecutionID    string     `gorm:"uniqueIndex;size:64;not null" json:"executionId"`
	TargetType     string     `gorm:"size:16;not null;index" json:"targetType"`
	TargetID       string     `gorm:"size:64;not null;index" json:"targetId"`
	TargetName     string     `gorm:"size:255" json:"targetName"`
	ProjectID      string     `gorm:"size:64;index" json:"ProjectID,omitempty"`
	ReleaseID      string     `gorm:"size:64" json:"ReleaseID,omitempty"`
	RunID          string     `gorm:"size:64" json:"RunID,omitempty"`
	Status         string     `gorm:"size:16;not null;default:'queued';index" json:"status"`
	Simulated      bool       `gorm:"default:true" json:"simulated"`
	TotalSteps     int        `gorm:"default:0" json:"totalSteps"`
	CompletedSteps int        `gorm:"default:0" json:"completedSteps"`
	Error          string     `gorm:"type:text" json:"error,omitempty"`
	RequestedBy    string     `gorm:"size:64;index" json:"requestedBy,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Execution) TableName() string {
	return "executions"
}

// Finished reports whether the execution reached a terminal state.
func (e *Execution) Finished() bool {
	return e.Status == ExecutionCompleted || e.Status == ExecutionFailed
}

// ExecutionLog is one line of an execution's step log.
type ExecutionLog struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ExecutionID string          `gorm:"size:64;not null;index" json:"executionId"`
	StepID      string          `gorm:"size:64;index" json:"stepId,omitempty"`
	StepNumber  int             `json:"stepNumber,omitempty"`
	Level       string          `gorm:"size:16;not null" json:"level"`
	Message     string          `gorm:"type:text" json:"message"`
	Status      ExecutionStatus `gorm:"size:16;not null;default:'NOT RUN'" json:"status"`
	Payload     JSONB           `gorm:"type:text" json:"payload,omitempty"`
	Timestamp   time.Time       `gorm:"not null;index" json:"timestamp"`
}

func (ExecutionLog) TableName() string {
	return "execution_logs"
}
