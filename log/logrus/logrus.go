// Package logrus adapts a *logrus.Entry to cacheable.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/cacheable"
)

var _ cacheable.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every entry with component=cacheable. A nil logger uses the
// logrus standard logger.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logger{E: l.WithField("component", "cacheable")}
}

func (l Logger) Debug(msg string, f cacheable.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f cacheable.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f cacheable.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f cacheable.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f cacheable.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
