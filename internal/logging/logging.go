package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"futures-trader/pkg/exchange"
)

// New builds a logger that tees human-readable lines on stderr with a JSON
// file log. The log file's directory is created when missing; an empty
// logFile disables the file core.
func New(logFile, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl),
	}

	if logFile != "" {
		if dir := filepath.Dir(logFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(f), lvl))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// Sink adapts a zap logger to the pipeline's event interface.
type Sink struct {
	log *zap.Logger
}

// NewSink wraps log as an exchange.Sink.
func NewSink(log *zap.Logger) *Sink { return &Sink{log: log} }

// Emit writes the event with deterministically ordered fields. Failure-ish
// events log at warn, the rest at info.
func (s *Sink) Emit(event exchange.Event, fields exchange.Fields) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}

	switch event {
	case exchange.EventOrderFailed, exchange.EventNetworkFailure, exchange.EventRateLimit:
		s.log.Warn(string(event), zf...)
	default:
		s.log.Info(string(event), zf...)
	}
}
