package journal

// Logger is the interface applications implement to receive journal events.
// Pass nil or NoopLogger to disable the journal.
type Logger interface {
	// Log records a transfer event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking slows transfers.
	Log(event Event)
}

// NoopLogger discards all events.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
