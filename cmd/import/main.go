package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Pradeepvanguru/Testing-Tool/internal/config"
	"github.com/Pradeepvanguru/Testing-Tool/internal/importer"
	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
	"github.com/Pradeepvanguru/Testing-Tool/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	var configPath, dataPath string

	cmd := &cobra.Command{
		Use:           "import",
		Short:         "Seed the catalog database from a JSON hierarchy",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, dataPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to config file")
	cmd.Flags().StringVar(&dataPath, "data", "seed/sample-catalog.json", "Path to catalog JSON file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configPath, dataPath string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	opts := logging.DefaultOptions()
	opts.Level = cfg.Log.Level
	opts.Prefix = "import"
	logger := logging.New(opts)

	// Initialize database
	if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Read catalog data
	f, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}
	defer f.Close()

	doc, err := importer.Decode(f)
	if err != nil {
		return err
	}

	im := importer.New(importer.Repositories{
		Projects:  repository.NewProjectRepository(db),
		Releases:  repository.NewReleaseRepository(db),
		Runs:      repository.NewRunRepository(db),
		TestCases: repository.NewTestCaseRepository(db),
		Steps:     repository.NewTestStepRepository(db),
	}, logger)

	sum, err := im.Import(doc)
	if err != nil {
		return err
	}
	logger.Info("Import complete", "created", sum.Created, "skipped", sum.Skipped, "failed", sum.Failed)
	return nil
}
