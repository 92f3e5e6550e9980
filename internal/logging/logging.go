// Package logging configures the process-wide logrus logger.
package logging

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logger from the configured level string.
// Unknown levels fall back to info.
func Setup(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

// Component returns a logger entry tagged with the component name. All
// packages log through entries produced here so output stays greppable by
// component.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
