package transport

import (
	"github.com/relaypipe/flow"
	"go.uber.org/zap"
)

// zapLogger adapts a *zap.SugaredLogger to flow.Logger.
type zapLogger struct {
	l *zap.SugaredLogger
}

// NewZapLogger adapts l to flow.Logger for use with flow.WithLogger.
func NewZapLogger(l *zap.Logger) flow.Logger {
	return zapLogger{l: l.Sugar()}
}

func (z zapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
