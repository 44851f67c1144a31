package pipeline

import (
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewDiagnostics builds the logger batchlog reports its own problems to:
// appender failures, dropped calls and shutdown timeouts. Output is
// human-readable and sampled so that a failing appender cannot flood w.
func NewDiagnostics(w io.Writer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	core = zapcore.NewSamplerWithOptions(core, time.Second, 10, 100)
	return zap.New(core).Named("batchlog")
}
