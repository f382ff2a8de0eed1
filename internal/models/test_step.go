package models

import (
	"strings"
	"time"
)

// TestStep is one row of a test case's ordered step table. Order is
// StepNumber, which the server recomputes from position on every save.
type TestStep struct {
	ID              uint            `gorm:"primaryKey" json:"-"`
	StepID          string          `gorm:"uniqueIndex;size:64;not null" json:"StepID"`
	TestCaseID      string          `gorm:"size:64;not null;index" json:"TestCaseID"`
	StepNumber      int             `gorm:"not null" json:"stepNumber"`
	Description     string          `gorm:"type:text" json:"description"`
	TestSteps       string          `gorm:"type:text" json:"testSteps"`
	ExpectedResult  string          `gorm:"type:text" json:"expectedResult"`
	ActualResult    string          `gorm:"type:text" json:"actualResult"`
	LocatorType     LocatorType     `gorm:"size:32;not null;default:'NA'" json:"locatorType"`
	LocatorValue    string          `gorm:"type:text" json:"locatorValue"`
	BrowserActions  BrowserAction   `gorm:"size:32;not null;default:'NA'" json:"browserActions"`
	Testdata        string          `gorm:"type:text" json:"testdata"`
	ExecutionStatus ExecutionStatus `gorm:"size:16;not null;default:'NOT RUN'" json:"executionStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (TestStep) TableName() string {
	return "test_steps"
}

// HasContent reports whether any free-text field is non-blank. Rows without
// content are never persisted.
func (s *TestStep) HasContent() bool {
	for _, v := range []string{s.TestSteps, s.Description, s.ExpectedResult, s.ActualResult, s.LocatorValue, s.Testdata} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Normalize fills empty enumerated fields with their vocabulary defaults.
func (s *TestStep) Normalize() {
	if s.LocatorType == "" {
		s.LocatorType = LocatorNA
	}
	if s.BrowserActions == "" {
		s.BrowserActions = ActionNA
	}
	if s.ExecutionStatus == "" {
		s.ExecutionStatus = StatusNotRun
	}
}
