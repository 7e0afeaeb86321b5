package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestWriterCoreLevels checks that the writer core honors its level
// threshold.
func TestWriterCoreLevels(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	logger := zap.New(NewWriterCore(&buf, zapcore.InfoLevel))

	logger.Debug("hidden")
	logger.Info("shown", zap.String("k", "v"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry leaked through info threshold: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "INFO") {
		t.Fatalf("info entry missing from output: %s", out)
	}
}

// TestNewVerbose checks that the verbose flag enables debug output.
func TestNewVerbose(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	logger := zap.New(NewWriterCore(&buf, zapcore.DebugLevel))
	logger.Debug("visible")
	_ = logger.Sync()

	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug entry missing: %s", buf.String())
	}
}
