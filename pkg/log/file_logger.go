package log

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileExt is the conventional extension for provisioning event files. Paths
// handed to NewFileLogger without an extension get it appended, so operators
// can pass a bare name and still end up with something lanprov-log expects.
const FileExt = ".plog"

// FileLogger captures the provisioning event stream to a file, one CBOR
// record per event. Records are appended, never rewritten, so a host and a
// later analysis of its trace see the same bytes. Safe for concurrent use.
type FileLogger struct {
	path    string
	file    *os.File
	encoder *cbor.Encoder

	mu     sync.Mutex
	closed bool
}

// NewFileLogger opens (or creates, mode 0644) the event file at path and
// appends to it. A path without an extension gets FileExt appended.
func NewFileLogger(path string) (*FileLogger, error) {
	if filepath.Ext(path) == "" {
		path += FileExt
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		path:    path,
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Path returns the file the logger writes to, including any appended FileExt.
func (l *FileLogger) Path() string {
	return l.path
}

// Log appends one event. Write errors are swallowed: event capture must
// never disrupt the lifecycle operation that produced the event.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	_ = l.encoder.Encode(event)
}

// Close closes the event file. Close is idempotent; events logged afterwards
// are silently dropped.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
