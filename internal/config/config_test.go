package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != DefaultHost || cfg.Port != DefaultPort || cfg.Path != DefaultPath {
		t.Errorf("target = %s:%d%s, want %s:%d%s", cfg.Host, cfg.Port, cfg.Path, DefaultHost, DefaultPort, DefaultPath)
	}
	if cfg.APIKey != DefaultAPIKey {
		t.Errorf("api key = %q, want %q", cfg.APIKey, DefaultAPIKey)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.Prompt != DefaultPrompt {
		t.Errorf("prompt = %q, want %q", cfg.Prompt, DefaultPrompt)
	}
	if d, err := cfg.ReadTimeoutDuration(); err != nil || d != 0 {
		t.Errorf("read timeout = %v, %v, want 0, nil", d, err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	data := "host: 10.0.0.7\nport: 9000\nmodel: test-model\nread_timeout: 30s\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "10.0.0.7" || cfg.Port != 9000 {
		t.Errorf("target = %s:%d, want 10.0.0.7:9000", cfg.Host, cfg.Port)
	}
	if cfg.Model != "test-model" {
		t.Errorf("model = %q, want test-model", cfg.Model)
	}
	// untouched keys keep defaults
	if cfg.APIKey != DefaultAPIKey {
		t.Errorf("api key = %q, want default", cfg.APIKey)
	}
	if d, _ := cfg.ReadTimeoutDuration(); d != 30*time.Second {
		t.Errorf("read timeout = %v, want 30s", d)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	if err := os.WriteFile(path, []byte("host: 10.0.0.7\nport: 9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STREAMPROBE_HOST", "192.168.1.5")
	t.Setenv("STREAMPROBE_PORT", "9001")
	t.Setenv("STREAMPROBE_PROMPT", "ping")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host != "192.168.1.5" || cfg.Port != 9001 {
		t.Errorf("target = %s:%d, want 192.168.1.5:9001", cfg.Host, cfg.Port)
	}
	if cfg.Prompt != "ping" {
		t.Errorf("prompt = %q, want ping", cfg.Prompt)
	}
}

func TestLoad_RejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	if err := os.WriteFile(path, []byte("host: [unterminated\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want yaml parse error")
	}
}

func TestLoad_RejectsBadTimeout(t *testing.T) {
	t.Setenv("STREAMPROBE_READ_TIMEOUT", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() error = nil, want invalid duration error")
	}
}

func TestLoad_NormalizesPath(t *testing.T) {
	t.Setenv("STREAMPROBE_PATH", "v1/chat/completions")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path != "/v1/chat/completions" {
		t.Errorf("path = %q, want leading slash added", cfg.Path)
	}
}
