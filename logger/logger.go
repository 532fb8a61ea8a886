package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates the process logger. An unknown level falls back to info and
// format "json" selects the JSON formatter, anything else the text one.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(level, format, os.Stdout)
}

// NewWithOutput is New writing to w.
func NewWithOutput(level, format string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	if lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid log level, using INFO")
	}

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return log
}

// Component scopes log to one part of the program.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}

// Discard returns an entry that drops everything, for components built
// without a logger.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}
