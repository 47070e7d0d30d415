package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTeeLoggerWritesBothCores(t *testing.T) {
	baseCore, baseLogs := observer.New(zap.WarnLevel)
	extraCore, extraLogs := observer.New(zap.DebugLevel)

	l := teeLogger(zap.New(baseCore), extraCore)
	l.Info("dropped")
	l.Warn("kept")

	if baseLogs.Len() != 1 || extraLogs.Len() != 1 {
		t.Fatalf("expected 1 entry per core, got %d and %d", baseLogs.Len(), extraLogs.Len())
	}
	if got := extraLogs.All()[0].Message; got != "kept" {
		t.Fatalf("expected %q, got %q", "kept", got)
	}
}
