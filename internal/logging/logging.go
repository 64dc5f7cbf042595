// Package logging builds the zap logger used across the service.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rmarek/headshot-service/internal/config"
)

// New constructs a logger from the log config. Debug level switches to the
// human-readable development encoder; other levels log JSON. When a file is
// configured, output goes to both stderr and a lumberjack-rotated file.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	if level == zapcore.DebugLevel {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	sink := zapcore.Lock(os.Stderr)
	core := zapcore.NewCore(encoder, sink, level)

	if cfg.File != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		core = zapcore.NewTee(core, zapcore.NewCore(encoder, rotated, level))
	}

	return zap.New(core, zap.AddCaller()), nil
}
