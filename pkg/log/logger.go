package log

// Logger receives regulator trace events.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent use
	// and must not block: Log is called from the voltage and budget paths.
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Tee returns a Logger that sends every event to each non-nil logger.
func Tee(loggers ...Logger) Logger {
	var t tee
	for _, l := range loggers {
		if l != nil {
			t = append(t, l)
		}
	}
	if len(t) == 0 {
		return NoopLogger{}
	}
	return t
}

type tee []Logger

func (t tee) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}
