package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	"github.com/Pradeepvanguru/Testing-Tool/internal/simulator"

	"github.com/google/uuid"
)

// ExecutionService triggers simulated runs of a test case or a whole run.
type ExecutionService interface {
	Start(req *StartExecutionRequest, requestedBy string) (*models.Execution, error)
	Get(executionID string) (*models.Execution, error)
	Logs(executionID string) ([]models.ExecutionLog, error)
	History(targetID string, limit int) ([]models.Execution, error)
}

// Launcher starts a plan in the background.
type Launcher interface {
	Start(exec *models.Execution, plan simulator.Plan)
}

type executionService struct {
	runRepo       repository.RunRepository
	testCaseRepo  repository.TestCaseRepository
	stepRepo      repository.TestStepRepository
	executionRepo repository.ExecutionRepository
	logRepo       repository.ExecutionLogRepository
	launcher      Launcher
}

// NewExecutionService creates a new execution service
func NewExecutionService(
	runRepo repository.RunRepository,
	testCaseRepo repository.TestCaseRepository,
	stepRepo repository.TestStepRepository,
	executionRepo repository.ExecutionRepository,
	logRepo repository.ExecutionLogRepository,
	launcher Launcher,
) ExecutionService {
	return &executionService{
		runRepo:       runRepo,
		testCaseRepo:  testCaseRepo,
		stepRepo:      stepRepo,
		executionRepo: executionRepo,
		logRepo:       logRepo,
		launcher:      launcher,
	}
}

// StartExecutionRequest names exactly one target. TestCaseID wins when both
// are set.
type StartExecutionRequest struct {
	TestCaseID string `json:"TestCaseID"`
	RunID      string `json:"RunID"`
}

func (s *executionService) Start(req *StartExecutionRequest, requestedBy string) (*models.Execution, error) {
	exec := &models.Execution{
		ExecutionID: uuid.New().String(),
		Status:      models.ExecutionQueued,
		Simulated:   true,
		RequestedBy: requestedBy,
		StartedAt:   time.Now(),
	}

	var plan simulator.Plan
	switch {
	case strings.TrimSpace(req.TestCaseID) != "":
		tc, err := s.testCaseRepo.FindByID(req.TestCaseID)
		if err != nil {
			return nil, fmt.Errorf("failed to find test case: %w", err)
		}
		if tc == nil {
			return nil, notFound("test case", req.TestCaseID)
		}
		exec.TargetType = models.TargetTestCase
		exec.TargetID = tc.TestCaseID
		exec.TargetName = tc.TestCaseName
		exec.ProjectID, exec.ReleaseID, exec.RunID = tc.ProjectID, tc.ReleaseID, tc.RunID
		if plan, err = s.planFor([]models.TestCase{*tc}); err != nil {
			return nil, err
		}

	case strings.TrimSpace(req.RunID) != "":
		run, err := s.runRepo.FindByID(req.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to find run: %w", err)
		}
		if run == nil {
			return nil, notFound("run", req.RunID)
		}
		cases, err := s.testCaseRepo.FindByRunID(run.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to list test cases: %w", err)
		}
		exec.TargetType = models.TargetRun
		exec.TargetID = run.RunID
		exec.TargetName = run.RunName
		exec.ProjectID, exec.ReleaseID, exec.RunID = run.ProjectID, run.ReleaseID, run.RunID
		if plan, err = s.planFor(cases); err != nil {
			return nil, err
		}

	default:
		return nil, invalid("TestCaseID or RunID is required")
	}

	exec.TotalSteps = plan.TotalSteps()
	if err := s.executionRepo.Create(exec); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}
	s.launcher.Start(exec, plan)
	return exec, nil
}

func (s *executionService) Get(executionID string) (*models.Execution, error) {
	exec, err := s.executionRepo.FindByID(executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find execution: %w", err)
	}
	if exec == nil {
		return nil, notFound("execution", executionID)
	}
	return exec, nil
}

func (s *executionService) Logs(executionID string) ([]models.ExecutionLog, error) {
	if _, err := s.Get(executionID); err != nil {
		return nil, err
	}
	return s.logRepo.FindByExecutionID(executionID)
}

func (s *executionService) History(targetID string, limit int) ([]models.Execution, error) {
	return s.executionRepo.FindByTarget(targetID, limit)
}

func (s *executionService) planFor(cases []models.TestCase) (simulator.Plan, error) {
	plan := make(simulator.Plan, 0, len(cases))
	for _, tc := range cases {
		steps, err := s.stepRepo.FindByTestCaseID(tc.TestCaseID)
		if err != nil {
			return nil, fmt.Errorf("failed to load steps: %w", err)
		}
		plan = append(plan, simulator.CaseSteps{TestCase: tc, Steps: steps})
	}
	return plan, nil
}
