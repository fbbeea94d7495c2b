package log

// Logger receives provisioning events: lifecycle transitions of the access
// point, listener and attachment, plus payload and error reports. Components
// take a Logger at construction; pass nil (or NoopLogger) to opt out.
type Logger interface {
	// Log records one event. Implementations must be safe for concurrent
	// use and must not block: Log is called from inside lifecycle
	// operations, and a slow subscriber slows the state machine it is
	// observing. Queue or drop instead.
	Log(event Event)
}

// NoopLogger discards all events. Safe for concurrent use; the zero value is
// ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
