// Package logging builds the zerolog logger used across the engine and the
// audit sink that records match and duplicate decisions.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum log level to output.
	Level string
	// Format is json or console.
	Format string
	// Output is stderr, stdout, discard or a file path.
	Output string
	// NoColor disables color output in console mode.
	NoColor bool
}

// DefaultConfig returns a console logger at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "console",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// New creates a logger from cfg. A file named by Output stays open for the
// life of the process; use Open when it must be closed.
func New(cfg Config) zerolog.Logger {
	log, _ := Open(cfg)
	return log
}

// Open creates a logger from cfg and returns the closer for the file it
// writes to. The closer is a no-op for the standard streams. A file that
// cannot be opened falls back to stderr and the failure is logged.
func Open(cfg Config) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	out, closer, openErr := writer(cfg)
	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if openErr != nil {
		log.Warn().Err(openErr).Str("output", cfg.Output).Msg("log file unavailable, writing to stderr")
	}
	return log, closer
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func writer(cfg Config) (io.Writer, io.Closer, error) {
	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
		err    error
	)
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		out = io.Discard
	default:
		var f *os.File
		f, err = os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			out = os.Stderr
		} else {
			out, closer = f, f
		}
	}

	if strings.ToLower(cfg.Format) == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.NoColor}, closer, err
	}
	return out, closer, err
}
