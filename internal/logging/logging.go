// Package logging wraps github.com/sirupsen/logrus behind the same
// tag/detail API the teacher's own logger package exposes
// (logger.Log(perm, tag, detail), logger.Logf(perm, tag, detail, args...)),
// minus the permission and ring-buffer machinery a structured-logging
// library already makes unnecessary: logrus fields replace the tag, and
// its own output handles what central.go's entry slice used to.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var central = logrus.New()

func init() {
	central.SetOutput(os.Stderr)
	central.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetOutput redirects where log entries are written; tests use this to
// capture output instead of letting it reach stderr.
func SetOutput(w io.Writer) {
	central.SetOutput(w)
}

// Log records one entry under tag at info level.
func Log(tag, detail string) {
	central.WithField("component", tag).Info(detail)
}

// Logf records one formatted entry under tag at info level.
func Logf(tag, format string, args ...interface{}) {
	central.WithField("component", tag).Infof(format, args...)
}

// Error records a fault or configuration error under tag at error level,
// the severity spec §2's ambient logging section reserves for fatal
// simulated faults and configuration errors right before the process
// exits.
func Error(tag, detail string) {
	central.WithField("component", tag).Error(detail)
}

// Errorf records a formatted fault or configuration error under tag at
// error level.
func Errorf(tag, format string, args ...interface{}) {
	central.WithField("component", tag).Errorf(format, args...)
}
