package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardex/internal/config"
)

func TestLoadDefaultsWithTempHome(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLibrary := filepath.Join(tempHome, ".local", "share", "cardex", "library")
	if cfg.Paths.LibraryDir != wantLibrary {
		t.Fatalf("unexpected library dir: got %q want %q", cfg.Paths.LibraryDir, wantLibrary)
	}
	if !cfg.Fetch.Enabled {
		t.Fatal("expected fetch enabled by default")
	}
	if cfg.Fetch.TimeoutSeconds != 30 {
		t.Fatalf("unexpected fetch timeout: %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.Export.OverwriteExisting {
		t.Fatal("expected overwrite disabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LibraryDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardex.toml")

	body := strings.Join([]string{
		"[paths]",
		`library_dir = "` + filepath.ToSlash(filepath.Join(tempDir, "lib")) + `"`,
		"",
		"[fetch]",
		"enabled = false",
		"timeout_seconds = 5",
		"",
		"[logging]",
		`format = "json"`,
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.LibraryDir != filepath.Join(tempDir, "lib") {
		t.Fatalf("library dir: got %q", cfg.Paths.LibraryDir)
	}
	if cfg.Fetch.Enabled {
		t.Fatal("expected fetch disabled")
	}
	if cfg.Fetch.TimeoutSeconds != 5 {
		t.Fatalf("fetch timeout: got %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging: got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidLogging(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardex.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected validation error for logging.format")
	}
}

func TestEnvOverridesLibraryDir(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	override := filepath.Join(tempHome, "elsewhere")
	t.Setenv("CARDEX_LIBRARY_DIR", override)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.LibraryDir != override {
		t.Fatalf("library dir: got %q want %q", cfg.Paths.LibraryDir, override)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempDir := t.TempDir()
	samplePath := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(samplePath); err != nil {
		t.Fatalf("Load sample: %v", err)
	} else if !exists {
		t.Fatal("sample config should exist")
	}
}

func TestExpandPathTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	got, err := config.ExpandPath("~/cards")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(tempHome, "cards") {
		t.Fatalf("expanded: got %q", got)
	}
}
