package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
	closer io.Closer
}

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.InfoLevel

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// ValidLevel reports whether level is one of the known level names.
func ValidLevel(level string) bool {
	switch level {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return true
	default:
		return false
	}
}

// newConsoleCore builds a zapcore.Core with a console encoder targeting ws.
func newConsoleCore(level zapcore.Level, ws zapcore.WriteSyncer) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(cfg)
	return zapcore.NewCore(encoder, zapcore.Lock(ws), zap.NewAtomicLevelAt(level))
}

// New builds a logger writing to path. The TUI owns the terminal, so logs
// normally go to a file; Stderr selects standard error.
func New(levelStr, path string) (*Logger, error) {
	if path == "" {
		return Nop(), nil
	}
	if path == Stderr {
		core := newConsoleCore(toZapLevel(levelStr), zapcore.AddSync(os.Stderr))
		return &Logger{SugaredLogger: zap.New(core).Sugar()}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	core := newConsoleCore(toZapLevel(levelStr), zapcore.AddSync(f))
	return &Logger{SugaredLogger: zap.New(core).Sugar(), closer: f}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	// Sync on a terminal or pipe can fail with EINVAL; the entries are written already.
	_ = l.Sync()
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
