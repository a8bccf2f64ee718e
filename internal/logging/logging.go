// Package logging builds the zerolog logger shared by a generator run.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Output formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name; empty means info
	Level string

	// Format is FormatConsole or FormatJSON; empty means console
	Format string

	// NoColor disables ANSI colors in console output
	NoColor bool

	// Out defaults to os.Stderr
	Out io.Writer

	// RunID is attached to every event; a random UUID is used when empty
	RunID string
}

// New returns a logger configured from opts. Every event carries a
// timestamp and the run_id field.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q", opts.Level)
		}
		level = parsed
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor || !IsTerminal(out),
		}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (expected %s or %s)", opts.Format, FormatConsole, FormatJSON)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger(), nil
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
