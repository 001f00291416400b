package core

// Logger is the application logger.
// Args may hold errors, maps of extra data, or the Actor performing the action.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies who triggered a logged event.
type Actor struct {
	ID       string
	Username string
}
