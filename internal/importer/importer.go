// Package importer seeds the catalog from a nested JSON document.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Document is the import file layout.
type Document struct {
	Projects []ProjectData `json:"projects"`
}

// ProjectData represents a project from JSON
type ProjectData struct {
	ProjectID   string        `json:"ProjectID"`
	ProjectName string        `json:"ProjectName"`
	IsReleased  bool          `json:"isReleased"`
	Releases    []ReleaseData `json:"releases"`
}

// ReleaseData represents a release from JSON
type ReleaseData struct {
	ReleaseID   string    `json:"ReleaseID"`
	ReleaseName string    `json:"ReleaseName"`
	Runs        []RunData `json:"runs"`
}

// RunData represents a run from JSON
type RunData struct {
	RunID     string         `json:"RunID"`
	RunName   string         `json:"RunName"`
	TestCases []TestCaseData `json:"testcases"`
}

// TestCaseData represents a test case from JSON
type TestCaseData struct {
	TestCaseID   string            `json:"TestCaseID"`
	TestCaseName string            `json:"TestCaseName"`
	Steps        []models.TestStep `json:"steps"`
}

// Summary counts what an import created and skipped.
type Summary struct {
	Created int
	Skipped int
	Failed  int
}

// Repositories used by the importer.
type Repositories struct {
	Projects  repository.ProjectRepository
	Releases  repository.ReleaseRepository
	Runs      repository.RunRepository
	TestCases repository.TestCaseRepository
	Steps     repository.TestStepRepository
}

// Importer writes documents into the repositories. Entities whose ID already
// exists are skipped; their children are still imported.
type Importer struct {
	repos  Repositories
	logger *log.Logger
}

// New creates an importer
func New(repos Repositories, logger *log.Logger) *Importer {
	return &Importer{repos: repos, logger: logger}
}

// Decode reads a Document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &doc, nil
}

// Import writes doc and reports what happened.
func (im *Importer) Import(doc *Document) (Summary, error) {
	var sum Summary
	for _, p := range doc.Projects {
		if strings.TrimSpace(p.ProjectName) == "" {
			im.logger.Warn("Skipping project without name", "id", p.ProjectID)
			sum.Failed++
			continue
		}
		projectID := idOr(p.ProjectID)
		existing, err := im.repos.Projects.FindByID(projectID)
		if err != nil {
			return sum, fmt.Errorf("failed to look up project: %w", err)
		}
		if existing != nil {
			im.logger.Info("Project already exists, skipping", "name", p.ProjectName)
			sum.Skipped++
		} else if err := im.repos.Projects.Create(&models.Project{
			ProjectID:   projectID,
			ProjectName: strings.TrimSpace(p.ProjectName),
			IsReleased:  p.IsReleased,
		}); err != nil {
			im.logger.Error("Failed to create project", "name", p.ProjectName, "err", err)
			sum.Failed++
			continue
		} else {
			im.logger.Info("Created project", "name", p.ProjectName)
			sum.Created++
		}

		for _, r := range p.Releases {
			if err := im.importRelease(projectID, r, &sum); err != nil {
				return sum, err
			}
		}
	}
	return sum, nil
}

func (im *Importer) importRelease(projectID string, r ReleaseData, sum *Summary) error {
	if strings.TrimSpace(r.ReleaseName) == "" {
		sum.Failed++
		return nil
	}
	releaseID := idOr(r.ReleaseID)
	existing, err := im.repos.Releases.FindByID(releaseID)
	if err != nil {
		return fmt.Errorf("failed to look up release: %w", err)
	}
	if existing != nil {
		sum.Skipped++
	} else if err := im.repos.Releases.Create(&models.Release{
		ReleaseID:   releaseID,
		ReleaseName: strings.TrimSpace(r.ReleaseName),
		ProjectID:   projectID,
	}); err != nil {
		im.logger.Error("Failed to create release", "name", r.ReleaseName, "err", err)
		sum.Failed++
		return nil
	} else {
		sum.Created++
	}

	for _, run := range r.Runs {
		if err := im.importRun(projectID, releaseID, run, sum); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importRun(projectID, releaseID string, run RunData, sum *Summary) error {
	if strings.TrimSpace(run.RunName) == "" {
		sum.Failed++
		return nil
	}
	runID := idOr(run.RunID)
	existing, err := im.repos.Runs.FindByID(runID)
	if err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if existing != nil {
		sum.Skipped++
	} else if err := im.repos.Runs.Create(&models.Run{
		RunID:     runID,
		RunName:   strings.TrimSpace(run.RunName),
		ReleaseID: releaseID,
		ProjectID: projectID,
	}); err != nil {
		im.logger.Error("Failed to create run", "name", run.RunName, "err", err)
		sum.Failed++
		return nil
	} else {
		sum.Created++
	}

	for _, tc := range run.TestCases {
		if err := im.importTestCase(projectID, releaseID, runID, tc, sum); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importTestCase(projectID, releaseID, runID string, tc TestCaseData, sum *Summary) error {
	if strings.TrimSpace(tc.TestCaseName) == "" {
		sum.Failed++
		return nil
	}
	testCaseID := idOr(tc.TestCaseID)
	existing, err := im.repos.TestCases.FindByID(testCaseID)
	if err != nil {
		return fmt.Errorf("failed to look up test case: %w", err)
	}
	if existing != nil {
		// Steps of existing test cases are left alone.
		sum.Skipped++
		return nil
	}
	if err := im.repos.TestCases.Create(&models.TestCase{
		TestCaseID:   testCaseID,
		TestCaseName: strings.TrimSpace(tc.TestCaseName),
		RunID:        runID,
		ReleaseID:    releaseID,
		ProjectID:    projectID,
	}); err != nil {
		im.logger.Error("Failed to create test case", "name", tc.TestCaseName, "err", err)
		sum.Failed++
		return nil
	}
	sum.Created++

	steps := make([]models.TestStep, 0, len(tc.Steps))
	for _, s := range tc.Steps {
		if !s.HasContent() {
			continue
		}
		s.ID = 0
		s.StepID = uuid.New().String()
		s.TestCaseID = testCaseID
		s.StepNumber = len(steps) + 1
		s.Normalize()
		steps = append(steps, s)
	}
	if err := im.repos.Steps.ReplaceForTestCase(testCaseID, steps); err != nil {
		im.logger.Error("Failed to create steps", "testCase", tc.TestCaseName, "err", err)
		sum.Failed++
		return nil
	}
	sum.Created += len(steps)
	return nil
}

func idOr(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.New().String()
}
