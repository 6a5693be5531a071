package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var global atomic.Pointer[slog.Logger]

var closer io.Closer = noopCloser{}

var fallback = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

// Init builds the process logger from opts and installs it as the slog default.
// A file setup error is reported but the console logger is still installed.
func Init(opts Options) error {
	logger, c, err := New(opts)
	SetLogger(logger)
	closer = c
	if err != nil {
		logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
	}
	return err
}

// SetLogger replaces the process logger
func SetLogger(logger *slog.Logger) {
	global.Store(logger)
	slog.SetDefault(logger)
}

// Logger returns the process logger, or a stderr logger before Init
func Logger() *slog.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return fallback
}

// Close flushes and closes the log file opened by Init
func Close() error {
	return closer.Close()
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

func Info(msg string, args ...any) { Logger().Info(msg, args...) }

func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

func Error(msg string, args ...any) { Logger().Error(msg, args...) }
