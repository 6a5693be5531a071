package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const filePrefix = "pharmacy-"

// WeeklyFile is an io.WriteCloser that writes to one file per ISO week,
// opening a numbered part when the size limit is reached. Files older than the
// retention window are removed when a new file is opened.
type WeeklyFile struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	part int
	size int64
}

// NewWeeklyFile creates the directory and returns a writer for it.
// maxSize <= 0 disables size-based parts.
func NewWeeklyFile(dir string, retentionWeeks int, maxSize int64) (*WeeklyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return &WeeklyFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
	}, nil
}

// weekKey returns the ISO week in YYYY-Www form
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (w *WeeklyFile) fileName(week string, part int) string {
	if part == 0 {
		return filepath.Join(w.dir, filePrefix+week+".log")
	}
	return filepath.Join(w.dir, fmt.Sprintf("%s%s.%d.log", filePrefix, week, part))
}

// Write implements io.Writer
func (w *WeeklyFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	week := weekKey(w.now())
	switch {
	case w.file == nil || week != w.week:
		if err := w.open(week, 0); err != nil {
			return 0, err
		}
	case w.maxSize > 0 && w.size+int64(len(p)) > w.maxSize && w.size > 0:
		if err := w.open(week, w.part+1); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// open switches to the first part >= part of week that still has room
// (caller must hold mu)
func (w *WeeklyFile) open(week string, part int) error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}

	for {
		path := w.fileName(week, part)
		info, err := os.Stat(path)
		if err != nil || w.maxSize <= 0 || info.Size() < w.maxSize {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", path, err)
			}
			w.file, w.week, w.part, w.size = f, week, part, 0
			if info != nil {
				w.size = info.Size()
			}
			break
		}
		part++
	}

	w.removeExpired()
	return nil
}

// removeExpired deletes log files last modified before the retention window
func (w *WeeklyFile) removeExpired() {
	if w.retention <= 0 {
		return
	}
	matches, err := filepath.Glob(filepath.Join(w.dir, filePrefix+"*.log"))
	if err != nil {
		return
	}

	cutoff := w.now().Add(-w.retention)
	current := ""
	if w.file != nil {
		current = w.file.Name()
	}
	for _, path := range matches {
		if path == current || !strings.HasPrefix(filepath.Base(path), filePrefix) {
			continue
		}
		if info, err := os.Stat(path); err == nil && info.ModTime().Before(cutoff) {
			_ = os.Remove(path)
		}
	}
}

// Close implements io.Closer
func (w *WeeklyFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
