package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	// Check defaults
	if cfg.Profiles != "profiles.yml" {
		t.Errorf("expected default profiles path 'profiles.yml', got %s", cfg.Profiles)
	}

	if cfg.Project.Dir != "." {
		t.Errorf("expected default project dir '.', got %s", cfg.Project.Dir)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected default logging level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	// Create temporary directory with config file
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	// Write config file
	configContent := `
profiles: etc/profiles.yml
project:
  dir: .
logging:
  level: debug
`
	os.WriteFile("toolbridge.yml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Profiles != "etc/profiles.yml" {
		t.Errorf("expected profiles path 'etc/profiles.yml', got %s", cfg.Profiles)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.WriteFile("toolbridge.yml", []byte("logging:\n  level: loud\n"), 0644)

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid logging level, got nil")
	}
}

func TestLoadRejectsFileAsProjectDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.WriteFile("notadir", []byte(""), 0644)
	os.WriteFile("toolbridge.yml", []byte("project:\n  dir: notadir\n"), 0644)

	if _, err := Load(); err == nil {
		t.Error("expected error for project dir that is a file, got nil")
	}
}

func TestProfilesPath(t *testing.T) {
	cfg := &Config{Profiles: "/etc/toolbridge/profiles.yml"}
	if got := cfg.ProfilesPath(); got != "/etc/toolbridge/profiles.yml" {
		t.Errorf("expected absolute path to pass through, got %s", got)
	}

	cfg = &Config{Profiles: "./conf/../profiles.yml"}
	if got := cfg.ProfilesPath(); got != "profiles.yml" {
		t.Errorf("expected cleaned relative path 'profiles.yml', got %s", got)
	}
}
