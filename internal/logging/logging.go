// Package logging configures the engine's structured logger.
package logging

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a leveled logger for one engine component. Verbosity is
// selected by the CLI_ENGINE_DEBUG environment variable; timestamps are
// enabled when <BIN>_TIMESTAMPS is set (the autoupdater sets it on spawned
// children so the autoupdate log is orderable).
func New(component string, envPrefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: component,
	})
	if os.Getenv("CLI_ENGINE_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	if os.Getenv(envPrefix+"_TIMESTAMPS") != "" {
		logger.SetReportTimestamp(true)
		logger.SetTimeFormat(time.RFC3339)
	}
	return logger
}
