// Package logging builds the zap loggers used by the command line.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConfig returns a console configuration that writes to stderr, keeping
// stdout free for command output. Stack traces and caller info are
// disabled; verbose lowers the level from info to debug.
func NewConfig(verbose bool) zap.Config {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		DisableCaller:     true,
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// New builds a named logger from NewConfig.
func New(verbose bool) (*zap.Logger, error) {
	logger, err := NewConfig(verbose).Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("jpegsqueeze"), nil
}
