// Package logx is the thin structured-logging wrapper every other package
// calls into, replacing the teacher's global debugf/printf with leveled,
// field-carrying logrus output gated by verbosity.
package logx

import (
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{
		DisableTimestamp: true,
		FullTimestamp:    false,
	}
	l.Level = logrus.InfoLevel
	return l
}

// SetVerbose toggles debug-level output, mirroring the teacher's
// Config.Verbose gate on debugf.
func SetVerbose(v bool) {
	if v {
		std.Level = logrus.DebugLevel
	} else {
		std.Level = logrus.InfoLevel
	}
}

// Fields is a shorthand alias so callers don't need to import logrus
// directly for simple {op, commit, pr} attachments.
type Fields = logrus.Fields

func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warnf(format string, args ...any)  { std.Warnf(format, args...) }
func Errorf(format string, args ...any) { std.Errorf(format, args...) }

// With returns an entry carrying the given structured fields, for call
// sites that want to attach {op, commit, pr} instead of formatting them
// into the message.
func With(fields Fields) *logrus.Entry { return std.WithFields(fields) }
