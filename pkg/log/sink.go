package log

import (
	"sync"
)

// Sink fans events out to a dynamic set of subscribers. It is the one
// intentionally shared logging resource in a lanprov process: any number of
// readers may subscribe and unsubscribe concurrently with writers.
//
// A panicking subscriber does not prevent delivery to the others and does
// not crash the writer.
type Sink struct {
	mu     sync.RWMutex
	subs   map[int]Logger
	nextID int
}

// NewSink creates an empty Sink.
func NewSink() *Sink {
	return &Sink{subs: make(map[int]Logger)}
}

// Subscribe registers a subscriber and returns its subscription ID.
func (s *Sink) Subscribe(l Logger) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = l
	return id
}

// Unsubscribe removes a subscriber. Removing an unknown ID is a no-op.
func (s *Sink) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// SubscriberCount returns the number of active subscribers.
func (s *Sink) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Log delivers the event to all subscribers.
func (s *Sink) Log(event Event) {
	s.mu.RLock()
	subs := make([]Logger, 0, len(s.subs))
	for _, l := range s.subs {
		subs = append(subs, l)
	}
	s.mu.RUnlock()

	for _, l := range subs {
		deliver(l, event)
	}
}

// deliver invokes one subscriber, isolating panics.
func deliver(l Logger, event Event) {
	defer func() {
		_ = recover()
	}()
	l.Log(event)
}

// Compile-time interface satisfaction check.
var _ Logger = (*Sink)(nil)

// MultiLogger sends events to a fixed set of loggers. Useful when you want
// both console output (via SlogAdapter) and file output (via FileLogger)
// simultaneously and the set is known up front; use Sink when subscribers
// come and go at runtime.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger that sends events to all provided loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log sends the event to all configured loggers.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
