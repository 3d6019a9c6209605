package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetGlobalConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	expected := filepath.Join(home, ".triage")
	if dir := GetGlobalConfigDir(); dir != expected {
		t.Errorf("expected %s, got %s", expected, dir)
	}
	if path := GetGlobalConfigPath(); path != filepath.Join(expected, "config") {
		t.Errorf("unexpected config path %s", path)
	}
}

func TestEnsureGlobalConfigDir(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	if err := EnsureGlobalConfigDir(); err != nil {
		t.Fatalf("failed to ensure global config dir: %v", err)
	}

	expectedDir := filepath.Join(tempHome, ".triage")
	if _, err := os.Stat(expectedDir); os.IsNotExist(err) {
		t.Errorf("global config directory was not created at %s", expectedDir)
	}
}

func TestSetGlobalConfig_CreatesDirAndFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	if err := SetGlobalConfig(KeyStrategy, "deadline"); err != nil {
		t.Fatalf("SetGlobalConfig failed: %v", err)
	}
	if err := SetGlobalConfig(KeyNeo4jPassword, "secret"); err != nil {
		t.Fatalf("SetGlobalConfig failed: %v", err)
	}

	value, err := GetGlobalConfig(KeyStrategy)
	if err != nil {
		t.Fatalf("GetGlobalConfig failed: %v", err)
	}
	if value != "deadline" {
		t.Errorf("expected deadline, got %s", value)
	}

	entries, err := ListGlobalConfig()
	if err != nil {
		t.Fatalf("ListGlobalConfig failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %v", entries)
	}
}

func TestSetGlobalConfig_RejectsUnknownStrategy(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SetGlobalConfig(KeyStrategy, "yolo"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestGetGlobalConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := GetGlobalConfig(KeyStrategy); err == nil {
		t.Error("expected error when the global config does not exist")
	}
}
