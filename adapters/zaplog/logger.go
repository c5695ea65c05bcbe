// Package zaplog adapts a zap logger to the authclient.Logger interface.
package zaplog

import (
	"go.uber.org/zap"

	authclient "github.com/goliatone/go-auth-client"
)

type logger struct {
	sugar *zap.SugaredLogger
}

var _ authclient.Logger = (*logger)(nil)

// New wraps a zap logger. A nil argument falls back to zap.NewNop.
func New(l *zap.Logger) authclient.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &logger{sugar: l.Sugar()}
}

func (l *logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}
