package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Logger exposes the shared logrus instance for components that want to
// attach their own fields (e.g. the HTTP request middleware).
func Logger() *logrus.Logger {
	return log
}

func Info(format string, a ...interface{}) {
	log.Infof(format, a...)
}

// Success is an Info-level line marked ok=true; kept as its own level
// name so scrape milestones stand out in the stream.
func Success(format string, a ...interface{}) {
	log.WithField("ok", true).Infof(format, a...)
}

func Warn(format string, a ...interface{}) {
	log.Warnf(format, a...)
}

func Error(format string, a ...interface{}) {
	log.Errorf(format, a...)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(fields)
}
