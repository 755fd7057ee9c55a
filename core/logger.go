package core

// Logger is any service that can log messages.
// args may hold errors, maps of extra data and the current user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies the user behind a logged event.
type LogPerson struct {
	ID    string
	Name  string
	Email string
}
