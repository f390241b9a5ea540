package logging

import (
	"io"
	"os"
	"sync"
)

// FileSink appends lines to a file, opening it fresh for every write and
// closing it immediately after, so a log line is durable the moment Write
// returns without holding a file descriptor open between calls.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// Write opens the file in append mode, writes line, and closes it.
func (s *FileSink) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return err
	}
	return f.Sync()
}

// Flush is a no-op: FileSink has nothing buffered between calls.
func (s *FileSink) Flush() error { return nil }

// Close is a no-op: FileSink holds no open descriptor.
func (s *FileSink) Close() error { return nil }

// writerSink wraps an io.Writer (e.g. os.Stderr, or a bytes.Buffer in
// tests) as a Sink without per-write open/close semantics.
type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *writerSink) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line)
	return err
}

func (s *writerSink) Flush() error { return nil }
func (s *writerSink) Close() error { return nil }
