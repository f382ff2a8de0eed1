// Package cli implements the testdesk command line client.
package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/logging"
	"github.com/Pradeepvanguru/Testing-Tool/internal/session"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// DefaultAPIURL is used when neither --api-url nor TESTDESK_API_URL is set.
const DefaultAPIURL = "http://localhost:8080"

// LogFile is the client log written under the config dir.
const LogFile = "testdesk.log"

// ErrNotLoggedIn is returned by commands that need a session when there is none.
var ErrNotLoggedIn = errors.New("not logged in (run `testdesk login`)")

// Config is the client configuration.
type Config struct {
	APIURL    string
	ConfigDir string
	LogLevel  string
	Timeout   time.Duration
}

// LoadConfig reads envPath into the environment when it exists and returns
// the configuration it describes.
func LoadConfig(envPath string) (*Config, error) {
	if envPath != "" {
		// A missing .env is fine; explicit variables still apply.
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		APIURL:   DefaultAPIURL,
		LogLevel: logging.DefaultOptions().Level,
		Timeout:  apiclient.DefaultTimeout,
	}
	if url := os.Getenv("TESTDESK_API_URL"); url != "" {
		cfg.APIURL = url
	}
	if raw := os.Getenv("TESTDESK_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.New("invalid TESTDESK_TIMEOUT: " + err.Error())
		}
		cfg.Timeout = d
	}

	dir, err := session.ConfigDir()
	if err != nil {
		return nil, err
	}
	cfg.ConfigDir = dir
	return cfg, nil
}

// Commands builds the command tree around a shared configuration.
type Commands struct {
	cfg    *Config
	logger *log.Logger

	// tokens overrides the file token store; tests use a memory store.
	tokens session.TokenStore
}

// NewCommands creates the commands for cfg.
func NewCommands(cfg *Config) *Commands {
	return &Commands{cfg: cfg}
}

// WithTokenStore replaces the persisted token store.
func (c *Commands) WithTokenStore(tokens session.TokenStore) *Commands {
	c.tokens = tokens
	return c
}

// NewRootCommand returns the testdesk root command with every subcommand
// registered.
func NewRootCommand(c *Commands) *cobra.Command {
	root := &cobra.Command{
		Use:           "testdesk",
		Short:         "Manage test cases and their steps",
		Long:          "testdesk browses projects, releases, runs and test cases, edits test steps and triggers simulated runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := logging.DefaultOptions()
			opts.Level = c.cfg.LogLevel
			opts.Output = cmd.ErrOrStderr()
			opts.Prefix = "testdesk"
			c.logger = logging.New(opts)
		},
	}
	root.PersistentFlags().StringVar(&c.cfg.APIURL, "api-url", c.cfg.APIURL, "API server base URL (env TESTDESK_API_URL)")
	root.PersistentFlags().StringVar(&c.cfg.ConfigDir, "config-dir", c.cfg.ConfigDir, "Directory holding the saved token and client log")
	root.PersistentFlags().StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "Log level (debug, info, warn, error)")

	c.Register(root)
	return root
}

// Register adds every subcommand to root.
func (c *Commands) Register(root *cobra.Command) {
	root.AddCommand(
		c.loginCommand(),
		c.signupCommand(),
		c.logoutCommand(),
		c.profileCommand(),
		c.treeCommand(),
		c.stepsCommand(),
		c.searchCommand(),
		c.runCommand(),
		c.tuiCommand(),
	)
}

// ===== Wiring =====

func (c *Commands) tokenStore() session.TokenStore {
	if c.tokens != nil {
		return c.tokens
	}
	return session.NewFileTokenStore(c.cfg.ConfigDir)
}

func (c *Commands) log() *log.Logger {
	if c.logger == nil {
		return logging.Discard()
	}
	return c.logger
}

// connect wires the session store and the API client to each other. The
// store is still loading; callers that need the user call Init.
func (c *Commands) connect(logger *log.Logger) (*apiclient.Client, *session.Store) {
	store := session.NewStore(c.tokenStore(), nil, logger)
	client := apiclient.New(c.cfg.APIURL, store,
		apiclient.WithTimeout(c.cfg.Timeout),
		apiclient.WithLogger(logger),
	)
	store.SetProfileFetcher(client)
	return client, store
}

// authenticated connects and restores the saved session.
func (c *Commands) authenticated(ctx context.Context) (*apiclient.Client, *session.Store, error) {
	client, store := c.connect(c.log())
	store.Init(ctx)
	if !store.Authenticated() {
		return nil, nil, ErrNotLoggedIn
	}
	return client, store, nil
}

func (c *Commands) logPath() string {
	return filepath.Join(c.cfg.ConfigDir, LogFile)
}
