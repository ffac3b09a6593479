package core

// Logger is the leveled logger consumed throughout the app.
// Trailing args may carry errors or extra context maps.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
