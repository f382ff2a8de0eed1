package service

import (
	"testing"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	"github.com/Pradeepvanguru/Testing-Tool/internal/simulator"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db       *gorm.DB
	catalog  CatalogService
	steps    StepService
	auth     AuthService
	execs    ExecutionService
	launcher *fakeLauncher
}

type launched struct {
	exec *models.Execution
	plan simulator.Plan
}

type fakeLauncher struct {
	calls []launched
}

func (f *fakeLauncher) Start(exec *models.Execution, plan simulator.Plan) {
	f.calls = append(f.calls, launched{exec: exec, plan: plan})
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))

	projectRepo := repository.NewProjectRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	runRepo := repository.NewRunRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	stepRepo := repository.NewTestStepRepository(db)
	launcher := &fakeLauncher{}

	return &fixture{
		db:      db,
		catalog: NewCatalogService(projectRepo, releaseRepo, runRepo, testCaseRepo),
		steps:   NewStepService(testCaseRepo, stepRepo, logging.Discard()),
		auth: NewAuthService(
			repository.NewUserRepository(db),
			repository.NewSessionRepository(db),
			time.Hour,
			logging.Discard(),
		),
		execs: NewExecutionService(
			runRepo,
			testCaseRepo,
			stepRepo,
			repository.NewExecutionRepository(db),
			repository.NewExecutionLogRepository(db),
			launcher,
		),
		launcher: launcher,
	}
}

// hierarchy creates P1/R1/Run1/TC1 and returns them.
func (f *fixture) hierarchy(t *testing.T) (*models.Project, *models.Release, *models.Run, *models.TestCase) {
	t.Helper()
	p, err := f.catalog.CreateProject(&CreateProjectRequest{ProjectName: "P1"}, "")
	require.NoError(t, err)
	r, err := f.catalog.CreateRelease(&CreateReleaseRequest{ProjectID: p.ProjectID, ReleaseName: "R1"})
	require.NoError(t, err)
	run, err := f.catalog.CreateRun(&CreateRunRequest{ProjectID: p.ProjectID, ReleaseID: r.ReleaseID, RunName: "Run1"})
	require.NoError(t, err)
	tc, err := f.catalog.CreateTestCase(&CreateTestCaseRequest{
		ProjectID: p.ProjectID, ReleaseID: r.ReleaseID, RunID: run.RunID, TestCaseName: "TC1",
	})
	require.NoError(t, err)
	return p, r, run, tc
}
