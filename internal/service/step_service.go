package service

import (
	"fmt"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// StepService 测试步骤服务接口
type StepService interface {
	ListSteps(projectID, releaseID, runID, testCaseID string) ([]models.TestStep, error)
	// SaveSteps replaces the stored steps of a test case with req.Steps, in
	// order. Rows without content are dropped and stepNumber is recomputed
	// from position starting at 1.
	SaveSteps(req *SaveStepsRequest) ([]models.TestStep, error)
}

type stepService struct {
	testCaseRepo repository.TestCaseRepository
	stepRepo     repository.TestStepRepository
	logger       *log.Logger
}

// NewStepService creates a new step service
func NewStepService(
	testCaseRepo repository.TestCaseRepository,
	stepRepo repository.TestStepRepository,
	logger *log.Logger,
) StepService {
	return &stepService{
		testCaseRepo: testCaseRepo,
		stepRepo:     stepRepo,
		logger:       logger,
	}
}

type SaveStepsRequest struct {
	ProjectID  string            `json:"ProjectID" binding:"required"`
	ReleaseID  string            `json:"ReleaseID" binding:"required"`
	RunID      string            `json:"RunID" binding:"required"`
	TestCaseID string            `json:"TestCaseID" binding:"required"`
	Steps      []models.TestStep `json:"steps"`
}

func (s *stepService) ListSteps(projectID, releaseID, runID, testCaseID string) ([]models.TestStep, error) {
	if _, err := s.findTestCase(projectID, releaseID, runID, testCaseID); err != nil {
		return nil, err
	}
	steps, err := s.stepRepo.FindByTestCaseID(testCaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	return steps, nil
}

func (s *stepService) SaveSteps(req *SaveStepsRequest) ([]models.TestStep, error) {
	if _, err := s.findTestCase(req.ProjectID, req.ReleaseID, req.RunID, req.TestCaseID); err != nil {
		return nil, err
	}

	existing, err := s.stepRepo.FindByTestCaseID(req.TestCaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load steps: %w", err)
	}
	owned := make(map[string]bool, len(existing))
	for _, step := range existing {
		owned[step.StepID] = true
	}

	steps := make([]models.TestStep, 0, len(req.Steps))
	seen := make(map[string]bool, len(req.Steps))
	for _, in := range req.Steps {
		if !in.HasContent() {
			continue
		}
		step := in
		step.ID = 0
		step.TestCaseID = req.TestCaseID
		step.StepNumber = len(steps) + 1
		step.Normalize()
		if err := validateStep(&step); err != nil {
			return nil, err
		}
		// Keep identifiers of rows this test case already owns, once each;
		// anything else is a new row.
		if !owned[step.StepID] || seen[step.StepID] {
			step.StepID = uuid.New().String()
		}
		seen[step.StepID] = true
		steps = append(steps, step)
	}

	if err := s.stepRepo.ReplaceForTestCase(req.TestCaseID, steps); err != nil {
		return nil, fmt.Errorf("failed to save steps: %w", err)
	}
	s.logger.Info("steps saved", "testCaseId", req.TestCaseID, "count", len(steps))

	return s.stepRepo.FindByTestCaseID(req.TestCaseID)
}

func (s *stepService) findTestCase(projectID, releaseID, runID, testCaseID string) (*models.TestCase, error) {
	tc, err := s.testCaseRepo.FindByID(testCaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find test case: %w", err)
	}
	if tc == nil || tc.ProjectID != projectID || tc.ReleaseID != releaseID || tc.RunID != runID {
		return nil, notFound("test case", testCaseID)
	}
	return tc, nil
}

func validateStep(step *models.TestStep) error {
	if !step.LocatorType.IsValid() {
		return invalid("step %d: invalid locatorType %q", step.StepNumber, step.LocatorType)
	}
	if !step.BrowserActions.IsValid() {
		return invalid("step %d: invalid browserActions %q", step.StepNumber, step.BrowserActions)
	}
	if !step.ExecutionStatus.IsValid() {
		return invalid("step %d: invalid executionStatus %q", step.StepNumber, step.ExecutionStatus)
	}
	return nil
}
