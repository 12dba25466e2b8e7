package jobs

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes cron's key/value logging through a sugared zap logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

// NewCronLogger creates a cron.Logger backed by zl.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{sugar: zl.Sugar()}
}

// Info is called on every schedule tick, so it logs at debug.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.sugar.Debugw(msg, keysAndValues...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	cl.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
