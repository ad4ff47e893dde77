package core

// Logger is any service that can report application events.
// Extra args may be errors, maps of extra data or the request's user.Profile.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
