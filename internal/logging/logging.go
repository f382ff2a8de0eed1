// Package logging builds the structured loggers used by the server and the
// terminal client.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a logger.
type Options struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string
	// Output defaults to os.Stderr.
	Output io.Writer
	// Prefix names the component.
	Prefix          string
	ReportTimestamp bool
	ReportCaller    bool
}

// DefaultOptions returns info-level options writing to stderr, honouring
// TESTDESK_LOG_LEVEL.
func DefaultOptions() Options {
	opts := Options{
		Level:           "info",
		Output:          os.Stderr,
		ReportTimestamp: true,
	}
	if level := os.Getenv("TESTDESK_LOG_LEVEL"); level != "" {
		opts.Level = level
	}
	return opts
}

// ParseLevel converts a level name to log.Level; unknown names map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// New creates a logger from opts.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
	})
}

// NewFile creates a logger appending to path. The terminal client uses it so
// log lines never interleave with the UI.
func NewFile(path string, opts Options) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, err
	}
	opts.Output = f
	return New(opts), f, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return New(Options{Output: io.Discard, Level: "error"})
}
