// Package observability builds the structured loggers used by the world
// loader and its tooling.
package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lanternmud/lantern/internal/config"
)

// NewLogger builds a logger from the logging configuration. Output goes to
// stderr so that worldcheck -dump can write content snapshots to stdout
// without log lines interleaving.
//
// cfg.Level must parse as a zap level; cfg.Format selects the "json" encoder
// for services or the human-oriented "console" encoder.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(cfg.Level); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	enc, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}

	sink := zapcore.Lock(os.Stderr)
	return zap.New(zapcore.NewCore(enc, sink, level), zap.ErrorOutput(sink)), nil
}

// NewVerbose returns a debug-level console logger regardless of configured
// logging settings. worldcheck -verbose uses it to narrate the load pass.
func NewVerbose() *zap.Logger {
	enc, _ := newEncoder("console")
	sink := zapcore.Lock(os.Stderr)
	return zap.New(zapcore.NewCore(enc, sink, zapcore.DebugLevel), zap.ErrorOutput(sink))
}

func newEncoder(format string) (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("log format %q: must be json or console", format)
	}
}
