// Package testutil starts a complete API server for tests that need to
// exercise the client side against real handlers.
package testutil

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/handler"
	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	"github.com/Pradeepvanguru/Testing-Tool/internal/service"
	"github.com/Pradeepvanguru/Testing-Tool/internal/simulator"
	"github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Backend is a running API server on an in-memory database.
type Backend struct {
	T      testing.TB
	Server *httptest.Server
	DB     *gorm.DB
}

// NewBackend starts the server. It is shut down by t.Cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(ctx)

	log := logging.Discard()
	projectRepo := repository.NewProjectRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	runRepo := repository.NewRunRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	stepRepo := repository.NewTestStepRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	logRepo := repository.NewExecutionLogRepository(db)
	runner := simulator.NewRunner(executionRepo, logRepo, hub, 0, log)

	router := handler.NewRouter(handler.Services{
		Auth: service.NewAuthService(
			repository.NewUserRepository(db),
			repository.NewSessionRepository(db),
			time.Hour,
			log,
		),
		Catalog:   service.NewCatalogService(projectRepo, releaseRepo, runRepo, testCaseRepo),
		Steps:     service.NewStepService(testCaseRepo, stepRepo, log),
		Execution: service.NewExecutionService(runRepo, testCaseRepo, stepRepo, executionRepo, logRepo, runner),
		Hub:       hub,
	}, log)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = runner.Shutdown(shutdownCtx)
		cancel()
	})

	return &Backend{T: t, Server: srv, DB: db}
}

// URL is the server base URL, without the /api suffix.
func (b *Backend) URL() string { return b.Server.URL }

// Client returns an API client that sends token.
func (b *Backend) Client(token string) *apiclient.Client {
	return apiclient.New(b.URL(), apiclient.StaticToken(token))
}

// SignUp registers a user and returns its token.
func (b *Backend) SignUp(username, email, password string) string {
	b.T.Helper()
	res, err := b.Client("").Register(context.Background(), username, email, password)
	require.NoError(b.T, err)
	return res.Token
}

// Tree is a seeded project/release/run/test case chain.
type Tree struct {
	Project  *models.Project
	Release  *models.Release
	Run      *models.Run
	TestCase *models.TestCase
}

// Payload builds a steps save for the chain's test case.
func (tr Tree) Payload(steps ...models.TestStep) apiclient.StepsPayload {
	return apiclient.StepsPayload{
		ProjectID:  tr.Project.ProjectID,
		ReleaseID:  tr.Release.ReleaseID,
		RunID:      tr.Run.RunID,
		TestCaseID: tr.TestCase.TestCaseID,
		Steps:      steps,
	}
}

// SeedTree creates one chain of the given names through the API.
func (b *Backend) SeedTree(token, project, release, run, testCase string) Tree {
	b.T.Helper()
	ctx := context.Background()
	c := b.Client(token)

	p, err := c.CreateProject(ctx, project)
	require.NoError(b.T, err)
	r, err := c.CreateRelease(ctx, p.ProjectID, release)
	require.NoError(b.T, err)
	rn, err := c.CreateRun(ctx, p.ProjectID, r.ReleaseID, run)
	require.NoError(b.T, err)
	tc, err := c.CreateTestCase(ctx, p.ProjectID, r.ReleaseID, rn.RunID, testCase)
	require.NoError(b.T, err)

	return Tree{Project: p, Release: r, Run: rn, TestCase: tc}
}
