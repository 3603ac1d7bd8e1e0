package core

// Logger is implemented by the logging services.
// args may carry errors, extra maps and the user.User on whose behalf the message is logged.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
