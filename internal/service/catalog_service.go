package service

import (
	"fmt"
	"strings"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"

	"github.com/google/uuid"
)

// CatalogService manages the Project → Release → Run → TestCase hierarchy.
type CatalogService interface {
	// Projects
	ListProjects() ([]models.Project, error)
	GetProject(projectID string) (*models.Project, error)
	CreateProject(req *CreateProjectRequest, createdBy string) (*models.Project, error)

	// Releases
	ListReleases(projectID string) ([]models.Release, error)
	CreateRelease(req *CreateReleaseRequest) (*models.Release, error)

	// Runs
	ListRuns(projectID, releaseID string) ([]models.Run, error)
	CreateRun(req *CreateRunRequest) (*models.Run, error)

	// Test cases
	ListTestCases(projectID, releaseID, runID string) ([]models.TestCase, error)
	CreateTestCase(req *CreateTestCaseRequest) (*models.TestCase, error)
	SearchTestCases(query string) ([]models.TestCase, error)
}

type catalogService struct {
	projectRepo  repository.ProjectRepository
	releaseRepo  repository.ReleaseRepository
	runRepo      repository.RunRepository
	testCaseRepo repository.TestCaseRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	projectRepo repository.ProjectRepository,
	releaseRepo repository.ReleaseRepository,
	runRepo repository.RunRepository,
	testCaseRepo repository.TestCaseRepository,
) CatalogService {
	return &catalogService{
		projectRepo:  projectRepo,
		releaseRepo:  releaseRepo,
		runRepo:      runRepo,
		testCaseRepo: testCaseRepo,
	}
}

// ===== Request DTOs =====

type CreateProjectRequest struct {
	ProjectName string `json:"ProjectName" binding:"required"`
	IsReleased  bool   `json:"isReleased"`
}

type CreateReleaseRequest struct {
	ProjectID   string `json:"ProjectID" binding:"required"`
	ReleaseName string `json:"ReleaseName" binding:"required"`
}

type CreateRunRequest struct {
	ProjectID string `json:"ProjectID" binding:"required"`
	ReleaseID string `json:"ReleaseID" binding:"required"`
	RunName   string `json:"RunName" binding:"required"`
}

type CreateTestCaseRequest struct {
	ProjectID    string `json:"ProjectID" binding:"required"`
	ReleaseID    string `json:"ReleaseID" binding:"required"`
	RunID        string `json:"RunID" binding:"required"`
	TestCaseName string `json:"TestCaseName" binding:"required"`
}

// ===== Projects =====

func (s *catalogService) ListProjects() ([]models.Project, error) {
	return s.projectRepo.FindAll()
}

func (s *catalogService) GetProject(projectID string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}
	return project, nil
}

func (s *catalogService) CreateProject(req *CreateProjectRequest, createdBy string) (*models.Project, error) {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		return nil, invalid("project name is required")
	}

	project := &models.Project{
		ProjectID:   uuid.New().String(),
		ProjectName: name,
		IsReleased:  req.IsReleased,
		CreatedBy:   createdBy,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// ===== Releases =====

func (s *catalogService) ListReleases(projectID string) ([]models.Release, error) {
	if _, err := s.GetProject(projectID); err != nil {
		return nil, err
	}
	return s.releaseRepo.FindByProjectID(projectID)
}

func (s *catalogService) CreateRelease(req *CreateReleaseRequest) (*models.Release, error) {
	name := strings.TrimSpace(req.ReleaseName)
	if name == "" {
		return nil, invalid("release name is required")
	}
	if _, err := s.GetProject(req.ProjectID); err != nil {
		return nil, err
	}

	release := &models.Release{
		ReleaseID:   uuid.New().String(),
		ReleaseName: name,
		ProjectID:   req.ProjectID,
	}
	if err := s.releaseRepo.Create(release); err != nil {
		return nil, fmt.Errorf("failed to create release: %w", err)
	}
	return release, nil
}

// ===== Runs =====

func (s *catalogService) ListRuns(projectID, releaseID string) ([]models.Run, error) {
	if _, err := s.findRelease(projectID, releaseID); err != nil {
		return nil, err
	}
	return s.runRepo.FindByRelease(projectID, releaseID)
}

func (s *catalogService) CreateRun(req *CreateRunRequest) (*models.Run, error) {
	name := strings.TrimSpace(req.RunName)
	if name == "" {
		return nil, invalid("run name is required")
	}
	if _, err := s.findRelease(req.ProjectID, req.ReleaseID); err != nil {
		return nil, err
	}

	run := &models.Run{
		RunID:     uuid.New().String(),
		RunName:   name,
		ReleaseID: req.ReleaseID,
		ProjectID: req.ProjectID,
	}
	if err := s.runRepo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// ===== Test cases =====

func (s *catalogService) ListTestCases(projectID, releaseID, runID string) ([]models.TestCase, error) {
	if _, err := s.findRun(projectID, releaseID, runID); err != nil {
		return nil, err
	}
	return s.testCaseRepo.FindByRun(projectID, releaseID, runID)
}

func (s *catalogService) CreateTestCase(req *CreateTestCaseRequest) (*models.TestCase, error) {
	name := strings.TrimSpace(req.TestCaseName)
	if name == "" {
		return nil, invalid("test case name is required")
	}
	if _, err := s.findRun(req.ProjectID, req.ReleaseID, req.RunID); err != nil {
		return nil, err
	}

	tc := &models.TestCase{
		TestCaseID:   uuid.New().String(),
		TestCaseName: name,
		RunID:        req.RunID,
		ReleaseID:    req.ReleaseID,
		ProjectID:    req.ProjectID,
	}
	if err := s.testCaseRepo.Create(tc); err != nil {
		return nil, fmt.Errorf("failed to create test case: %w", err)
	}
	return tc, nil
}

func (s *catalogService) SearchTestCases(query string) ([]models.TestCase, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("query parameter 'q' is required")
	}
	return s.testCaseRepo.Search(query)
}

// ===== Helper Methods =====

// findRelease resolves a release and checks it belongs to projectID.
func (s *catalogService) findRelease(projectID, releaseID string) (*models.Release, error) {
	release, err := s.releaseRepo.FindByID(releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find release: %w", err)
	}
	if release == nil || release.ProjectID != projectID {
		return nil, notFound("release", releaseID)
	}
	return release, nil
}

// findRun resolves a run and checks its ancestry.
func (s *catalogService) findRun(projectID, releaseID, runID string) (*models.Run, error) {
	run, err := s.runRepo.FindByID(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to find run: %w", err)
	}
	if run == nil || run.ProjectID != projectID || run.ReleaseID != releaseID {
		return nil, notFound("run", runID)
	}
	return run, nil
}
