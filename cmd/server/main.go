package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/config"
	"github.com/Pradeepvanguru/Testing-Tool/internal/handler"
	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"
	"github.com/Pradeepvanguru/Testing-Tool/internal/service"
	"github.com/Pradeepvanguru/Testing-Tool/internal/simulator"
	"github.com/Pradeepvanguru/Testing-Tool/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load config", "path", configPath, "err", err)
	}

	opts := logging.DefaultOptions()
	if os.Getenv("TESTDESK_LOG_LEVEL") == "" {
		opts.Level = cfg.Log.Level
	}
	opts.Prefix = "server"
	logger := logging.New(opts)

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", "err", err)
	}

	// Auto migrate models
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "err", err)
	}

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	runRepo := repository.NewRunRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	stepRepo := repository.NewTestStepRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	logRepo := repository.NewExecutionLogRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live execution events
	hub := websocket.NewHub()
	go hub.Run(ctx)
	runner := simulator.NewRunner(executionRepo, logRepo, hub, cfg.Execution.StepDelay(), logger.WithPrefix("simulator"))

	// Initialize services
	authService := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		cfg.Auth.TokenTTL(),
		logger.WithPrefix("auth"),
	)
	if n, err := authService.PurgeExpiredSessions(); err != nil {
		logger.Warn("Failed to purge expired sessions", "err", err)
	} else if n > 0 {
		logger.Info("Purged expired sessions", "count", n)
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.Services{
		Auth:      authService,
		Catalog:   service.NewCatalogService(projectRepo, releaseRepo, runRepo, testCaseRepo),
		Steps:     service.NewStepService(testCaseRepo, stepRepo, logger.WithPrefix("steps")),
		Execution: service.NewExecutionService(runRepo, testCaseRepo, stepRepo, executionRepo, logRepo, runner),
		Hub:       hub,
	}, logger.WithPrefix("http"))

	// Start server
	srv := &http.Server{
		Addr:              cfg.Server.GetAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting testing tool service", "addr", srv.Addr, "db", cfg.Database.DSN)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "err", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Error("Executions did not finish", "err", err)
	}
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Type {
	case "sqlite":
		// Ensure data directory exists
		dbPath := cfg.Database.DSN
		dbDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}
