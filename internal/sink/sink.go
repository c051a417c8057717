// Package sink persists result records to an append-only JSONL log.
//
// Appends are serialized through a mutex so each record lands as exactly one
// line, whole, regardless of how many workers are completing concurrently.
// A write failure is fatal for the run: records already appended stay durable
// on disk, but losing the log defeats the tool's purpose.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/burstline/burstline/internal/record"
)

// Sink appends result records to a JSONL file, one object per line.
type Sink struct {
	mu   sync.Mutex
	file *os.File
	lock *flock.Flock
	path string
}

// Open creates the log file's parent directory if absent and opens the log.
// The default mode starts a fresh file; appendLog preserves existing records.
// An exclusive advisory lock guards the log so two concurrent runs cannot
// interleave lines in one file.
func Open(path string, appendLog bool) (*Sink, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock log file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("log file %s is locked by another run", path)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendLog {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Sink{file: file, lock: lock, path: path}, nil
}

// Append serializes rec and writes it as one atomic line. Safe for
// concurrent use. A non-nil error means the log can no longer be trusted and
// the run must abort.
func (s *Sink) Append(rec record.Record) error {
	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("encode record %d: %w", rec.RequestID, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("log file %s is closed", s.path)
	}
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("append record %d: %w", rec.RequestID, err)
	}
	return nil
}

// Path returns the log file location.
func (s *Sink) Path() string { return s.path }

// Close releases the log lock and closes the file. Further appends fail.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			first = err
		}
		s.file = nil
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && first == nil {
			first = err
		}
		s.lock = nil
	}
	return first
}
