// Package logging configures the application logger.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger from the configured level and format.
// Unknown levels fall back to info; any format other than "text" is JSON.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if strings.ToLower(format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
