// Package logging sets up the slog logger of the service: human readable text
// on the console and JSON in weekly rotated files.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/smartpharmacy-api/config"
)

// Options configures New
type Options struct {
	Env            config.Environment
	Level          string // overrides the environment default when set
	Verbose        bool
	Dir            string // empty disables the file handler
	RetentionWeeks int
	MaxFileSize    int64
	Console        io.Writer // defaults to os.Stdout
}

// ParseLevel maps a level name to slog.Level; unknown names are Info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConsoleLevel picks the console level. An explicit level wins, then verbose,
// then the environment: debug in dev, warn in prod, error in test.
func ConsoleLevel(env config.Environment, level string, verbose bool) slog.Level {
	if level != "" {
		return ParseLevel(level)
	}
	if verbose {
		return slog.LevelDebug
	}
	switch env {
	case config.EnvDevelopment:
		return slog.LevelDebug
	case config.EnvProduction:
		return slog.LevelWarn
	case config.EnvTest:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FileLevel is the level of the JSON file handler
func FileLevel() slog.Level {
	return slog.LevelDebug
}

// New builds the logger described by opts. The returned closer releases the
// log file and is never nil. When the file cannot be opened the logger falls
// back to console only and the error is returned alongside it.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: ConsoleLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.Dir == "" {
		return slog.New(consoleHandler), noopCloser{}, nil
	}

	file, err := NewWeeklyFile(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
	if err != nil {
		return slog.New(consoleHandler), noopCloser{}, err
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: FileLevel()})
	return slog.New(fanout{consoleHandler, fileHandler}), file, nil
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// fanout sends every record to each handler that accepts its level
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
