// Package logging builds the zap loggers used by the command. Diagnostics go
// to stderr so stdout stays clean for result JSON; an optional rotating file
// sink captures the same stream for long-running batch use.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// NewWriterCore builds a core that logs to an arbitrary writer. Tests use it
// to capture log output.
func NewWriterCore(w io.Writer, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		level)
}

// NewFileCore builds a core writing JSON lines to a size-rotated file.
func NewFileCore(path string, level zapcore.Level) zapcore.Core {
	rotator := &lumberjack.Logger{
		Filename:  path,
		MaxSize:   50,
		LocalTime: true,
		Compress:  true,
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(rotator),
		level)
}

// New builds the command logger. verbose lowers the stderr threshold to
// debug; logFile, when non-empty, adds the rotating file sink.
func New(verbose bool, logFile string) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cores := []zapcore.Core{NewWriterCore(os.Stderr, level)}
	if logFile != "" {
		cores = append(cores, NewFileCore(logFile, level))
	}
	return zap.New(zapcore.NewTee(cores...))
}
