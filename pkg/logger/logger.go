// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap sugared logger so callers get structured key/value
// logging without depending on zap directly.
type Logger struct {
	*zap.SugaredLogger
}

// New creates a production logger tagged with the service name.
func New(service string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build(zap.Fields(zap.String("service", service)))
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z.Sugar()}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}
