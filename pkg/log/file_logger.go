package log

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends trace events to a file. Encoding failures never reach
// the regulator; they are counted instead.
type FileLogger struct {
	mu  sync.Mutex
	f   *os.File // nil once closed
	enc *cbor.Encoder

	dropped atomic.Int64
}

var _ Logger = (*FileLogger)(nil)

// NewFileLogger opens path for appending, creating it if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{f: f, enc: NewEncoder(f)}, nil
}

// Log appends event. Events logged after Close count as dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil || l.enc.Encode(event) != nil {
		l.dropped.Add(1)
	}
}

// Dropped returns how many events could not be written.
func (l *FileLogger) Dropped() int64 {
	return l.dropped.Load()
}

// Close closes the file. It is safe to call more than once.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
