package journal

import (
	"bytes"
	"log/slog"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends journal events to a .sjl file. Each event is encoded
// in full before it is written, so a failed event never leaves a partial
// record behind. It is safe for concurrent use.
type FileLogger struct {
	path   string
	file   *os.File
	buf    bytes.Buffer
	enc    *cbor.Encoder
	logger *slog.Logger

	mu      sync.Mutex
	written int
	dropped int
	closed  bool
}

// FileLoggerOption configures a FileLogger.
type FileLoggerOption func(*FileLogger)

// WithErrorLogger reports events that could not be journaled to l.
func WithErrorLogger(l *slog.Logger) FileLoggerOption {
	return func(f *FileLogger) { f.logger = l }
}

// NewFileLogger opens path for appending, creating it with mode 0644.
func NewFileLogger(path string, opts ...FileLoggerOption) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l := &FileLogger{path: path, file: f}
	l.enc = NewEncoder(&l.buf)
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Log appends event. Failures never reach the caller; they are counted in
// Dropped and reported to the error logger if one is set.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.buf.Reset()
	if err := l.enc.Encode(event); err != nil {
		l.drop("journal encode failed", event, err)
		return
	}
	if _, err := l.file.Write(l.buf.Bytes()); err != nil {
		l.drop("journal write failed", event, err)
		return
	}
	l.written++
}

func (l *FileLogger) drop(msg string, event Event, err error) {
	l.dropped++
	if l.logger != nil {
		l.logger.Warn(msg,
			"path", l.path,
			"category", event.Category.String(),
			"transfer", event.TransferID,
			"error", err)
	}
}

// Written returns the number of events appended so far.
func (l *FileLogger) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Dropped returns the number of events that could not be journaled.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close flushes and closes the file. Later calls and later Log calls are
// no-ops.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	syncErr := l.file.Sync()
	if err := l.file.Close(); err != nil {
		return err
	}
	return syncErr
}

var _ Logger = (*FileLogger)(nil)
