package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is the root of the Project → Release → Run → TestCase hierarchy.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	ProjectID   string         `gorm:"uniqueIndex;size:64;not null" json:"ProjectID"`
	ProjectName string         `gorm:"size:255;not null" json:"ProjectName"`
	IsReleased  bool           `gorm:"default:false" json:"isReleased"`
	CreatedBy   string         `gorm:"size:64;index" json:"createdBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// Release belongs to a Project.
type Release struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	ReleaseID   string         `gorm:"uniqueIndex;size:64;not null" json:"ReleaseID"`
	ReleaseName string         `gorm:"size:255;not null" json:"ReleaseName"`
	ProjectID   string         `gorm:"size:64;not null;index" json:"ProjectID"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Release) TableName() string {
	return "releases"
}

// Run belongs to a Release. ProjectID is denormalised so runs can be listed
// by (project, release) without a join.
type Run struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	RunID     string         `gorm:"uniqueIndex;size:64;not null" json:"RunID"`
	RunName   string         `gorm:"size:255;not null" json:"RunName"`
	ReleaseID string         `gorm:"size:64;not null;index" json:"ReleaseID"`
	ProjectID string         `gorm:"size:64;not null;index" json:"ProjectID"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Run) TableName() string {
	return "runs"
}

// TestCase belongs to a Run and owns an ordered list of TestSteps.
type TestCase struct {
	ID           uint           `gorm:"primaryKey" json:"-"`
	TestCaseID   string         `gorm:"uniqueIndex;size:64;not null" json:"TestCaseID"`
	TestCaseName string         `gorm:"size:255;not null" json:"TestCaseName"`
	RunID        string         `gorm:"size:64;not null;index" json:"RunID"`
	ReleaseID    string         `gorm:"size:64;not null;index" json:"ReleaseID"`
	ProjectID    string         `gorm:"size:64;not null;index" json:"ProjectID"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestCase) TableName() string {
	return "test_cases"
}
