// Package observability configures the process-wide logger.
package observability

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the CLI's console logger. Verbose runs get debug traces
// of each rewrite stage; everything else stays at warnings so the command's
// own stderr output is not drowned out.
func NewLogger(app string, w io.Writer, verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", app).
		Logger()
}
