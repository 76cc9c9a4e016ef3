package ntpsync

// Logger is the logging interface used by this package. It is satisfied
// by log.Log of github.com/apex/log.
type Logger interface {
	Debug(msg string)
	Debugf(format string, v ...interface{})
	Info(msg string)
	Infof(format string, v ...interface{})
	Warn(msg string)
	Warnf(format string, v ...interface{})
}

type noLogger struct{}

func (noLogger) Debug(msg string)                       {}
func (noLogger) Debugf(format string, v ...interface{}) {}
func (noLogger) Info(msg string)                        {}
func (noLogger) Infof(format string, v ...interface{})  {}
func (noLogger) Warn(msg string)                        {}
func (noLogger) Warnf(format string, v ...interface{})  {}

func loggerOrDefault(l Logger) Logger {
	if l == nil {
		return noLogger{}
	}
	return l
}
