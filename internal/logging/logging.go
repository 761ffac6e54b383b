// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger for app. Development uses the text formatter with full
// timestamps and debug level; other environments log JSON at level (info when empty or invalid).
func New(app, env, level string) *logrus.Logger {
	return NewWithOutput(os.Stdout, app, env, level)
}

// NewWithOutput is New writing to w.
func NewWithOutput(w io.Writer, app, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(level); err == nil && level != "" {
		logger.SetLevel(lvl)
	}
	logger.WithFields(logrus.Fields{"app": app, "env": env}).Debug("logger initialized")
	return logger
}

// MaskPhone keeps the last four characters of phone.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
