package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin wrapper over zap so packages depend on a stable, minimal
// surface that can be swapped later.
type Logger struct {
	s *zap.SugaredLogger
}

// NewLogger creates a logger writing to stderr. level is a zap level name
// ("debug", "info", ...); unknown levels fall back to info. jsonFormat
// selects JSON records over the console encoder.
func NewLogger(level string, jsonFormat bool) *Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if jsonFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), lvl)
	return &Logger{s: zap.New(core).Sugar()}
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) Info(msg string) {
	l.s.Info(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.s.Infof(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.s.Errorf(format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.s.Debugf(format, args...)
}

// Sync flushes buffered records. Safe to call at shutdown.
func (l *Logger) Sync() {
	_ = l.s.Sync()
}
