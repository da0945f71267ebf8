package access

import (
	"go.uber.org/zap"
)

// ZapLogger adapts a zap sugared logger to the Logger interface.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger wraps the given zap logger. A nil argument falls back to a
// production configuration.
func NewZapLogger(log *zap.Logger) *ZapLogger {
	if log == nil {
		log, _ = zap.NewProduction()
	}
	return &ZapLogger{log: log.Sugar()}
}

func (z *ZapLogger) Debug(format string, args ...any) {
	z.log.Debugf(format, args...)
}

func (z *ZapLogger) Info(format string, args ...any) {
	z.log.Infof(format, args...)
}

func (z *ZapLogger) Warn(format string, args ...any) {
	z.log.Warnf(format, args...)
}

func (z *ZapLogger) Error(format string, args ...any) {
	z.log.Errorf(format, args...)
}

var _ Logger = (*ZapLogger)(nil)
