package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil || logger.Slog() == nil {
		t.Fatal("expected usable logger from zero config")
	}
	defer logger.Close()

	// Must not panic, must filter Debug at default Info level.
	logger.Debug("filtered")
	logger.Info("kept", "key", "value")
}

func TestNew_WithLogDir_WritesFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelDebug, LogDir: dir, Service: "testsvc", Quiet: true})

	logger.Info("file entry", "attr", 42)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %v (err %v)", entries, err)
	}
	if !strings.HasPrefix(entries[0].Name(), "testsvc_") {
		t.Errorf("log file name %q missing service prefix", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"file entry"`) {
		t.Errorf("file log missing JSON entry: %s", data)
	}
	if !strings.Contains(string(data), `"service":"testsvc"`) {
		t.Errorf("file log missing service attribute: %s", data)
	}
}

func TestLogger_With_DoesNotMutateParent(t *testing.T) {
	parent := New(Config{Quiet: true})
	defer parent.Close()

	child := parent.With("request_id", "abc")
	if child == parent {
		t.Fatal("With() must return a new logger")
	}
	child.Info("child entry")
	parent.Info("parent entry")
}

func TestClose_Idempotent(t *testing.T) {
	logger := New(Config{LogDir: t.TempDir(), Quiet: true})
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}
