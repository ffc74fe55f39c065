package logger

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Info("routine created", "id", "r1")
	if _, err := os.Stat(filepath.Join(configDir, "logs", FileName)); err != nil {
		t.Errorf("expected log file after Info: %v", err)
	}
}

func TestScopeFields(t *testing.T) {
	base := Store("sqlite")
	user := base.User("u1").With("routine", "r1")

	want := []interface{}{"backend", "sqlite", "uid", "u1", "routine", "r1"}
	if got := user.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
	// Deriving a scope never changes its parent.
	if got := base.Fields(); len(got) != 2 {
		t.Errorf("parent scope changed: %v", got)
	}
}

func TestScopeWritesTaggedLines(t *testing.T) {
	configDir := t.TempDir()
	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	Store("memory").User("u42").Info("session recorded", "minutes", 30)

	data, err := os.ReadFile(filepath.Join(configDir, "logs", FileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	for _, want := range []string{"session recorded", "backend=memory", "uid=u42", "minutes=30"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log line %q does not contain %q", data, want)
		}
	}
}

func TestLogWithoutInit(t *testing.T) {
	Logger = nil

	// Nothing may panic before Init.
	Debug("debug")
	Error("error")
	Store("sqlite").User("u1").Warn("warn")
}
