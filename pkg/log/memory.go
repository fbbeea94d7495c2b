package log

import (
	"sync"
)

// MemoryLogger keeps every logged event in memory, in order of arrival.
// Events are never removed. Useful for interactive display and tests.
type MemoryLogger struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryLogger creates an empty MemoryLogger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Log appends the event.
func (m *MemoryLogger) Log(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a snapshot of all events logged so far.
func (m *MemoryLogger) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Len returns the number of events logged so far.
func (m *MemoryLogger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Compile-time interface satisfaction check.
var _ Logger = (*MemoryLogger)(nil)
