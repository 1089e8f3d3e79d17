package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != "info" {
		t.Errorf("LogLevel() = %q, want info", cfg.LogLevel())
	}
	if cfg.DebounceWindow() != 300*time.Millisecond {
		t.Errorf("DebounceWindow() = %v, want 300ms", cfg.DebounceWindow())
	}
	if cfg.SettleFallback() != 250*time.Millisecond {
		t.Errorf("SettleFallback() = %v, want 250ms", cfg.SettleFallback())
	}
	if cfg.ThumbCount() != 10 {
		t.Errorf("ThumbCount() = %d, want 10", cfg.ThumbCount())
	}
	if cfg.CloudURL() != "" {
		t.Errorf("CloudURL() = %q, want empty", cfg.CloudURL())
	}
	if cfg.Headless() {
		t.Error("Headless() = true, want false by default")
	}
}

func TestPort_FromEnv(t *testing.T) {
	t.Setenv(EnvPort, "9001")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9001 {
		t.Errorf("Port() = %d, want 9001", cfg.Port())
	}
}

func TestPort_Invalid(t *testing.T) {
	for _, v := range []string{"abc", "0", "70000"} {
		t.Setenv(EnvPort, v)
		if _, err := New(); err == nil {
			t.Errorf("New() with port %q should fail", v)
		}
	}
}

func TestDebounce_FromEnv(t *testing.T) {
	t.Setenv(EnvDebounceMs, "150")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DebounceWindow() != 150*time.Millisecond {
		t.Errorf("DebounceWindow() = %v, want 150ms", cfg.DebounceWindow())
	}
}

func TestDebounce_Invalid(t *testing.T) {
	t.Setenv(EnvDebounceMs, "-5")
	if _, err := New(); err == nil {
		t.Error("New() with negative debounce should fail")
	}
}

func TestDataDirPaths(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/stepcut-test")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != "/tmp/stepcut-test/stepcut.db" {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.ThumbsDir() != "/tmp/stepcut-test/thumbs" {
		t.Errorf("ThumbsDir() = %q", cfg.ThumbsDir())
	}
}

func TestHeadless_FromEnv(t *testing.T) {
	for _, v := range []string{"1", "true"} {
		t.Setenv(EnvHeadless, v)
		cfg, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Headless() {
			t.Errorf("Headless() with %q = false, want true", v)
		}
	}
}

func TestCloudCredentials_FromEnv(t *testing.T) {
	t.Setenv(EnvCloudURL, "https://api.stepcut.example")
	t.Setenv(EnvCloudToken, "secret-token")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CloudURL() != "https://api.stepcut.example" {
		t.Errorf("CloudURL() = %q", cfg.CloudURL())
	}
	if cfg.CloudToken() != "secret-token" {
		t.Errorf("CloudToken() = %q", cfg.CloudToken())
	}
}
