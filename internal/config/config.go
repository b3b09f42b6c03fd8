// Package config loads probe settings. The compiled-in defaults describe the
// local Proxycast endpoint, so running with no config file and no environment
// reproduces the stock diagnostic request exactly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is consulted when STREAMPROBE_CONFIG is unset. A missing
// file is not an error.
const DefaultConfigFile = "probe.yaml"

const (
	DefaultHost   = "127.0.0.1"
	DefaultPort   = 8999
	DefaultPath   = "/v1/chat/completions"
	DefaultAPIKey = "Proxycast-key11"
	DefaultModel  = "claude-opus-4-5-20251101"
	DefaultPrompt = "你好"
)

// ProbeConfig describes one probe run. File values override defaults,
// environment values override both.
type ProbeConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Path   string `yaml:"path"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	Prompt string `yaml:"prompt"`
	// ReadTimeout is a duration string such as "30s". Empty means no timeout,
	// matching the original blocking behavior.
	ReadTimeout string `yaml:"read_timeout"`
	// LogDir receives one transcript file per run. Empty disables transcripts.
	LogDir string `yaml:"log_dir"`
}

// Load reads the config file at path (empty means DefaultConfigFile) and
// applies STREAMPROBE_* environment overrides.
func Load(path string) (ProbeConfig, error) {
	cfg := ProbeConfig{
		Host:   DefaultHost,
		Port:   DefaultPort,
		Path:   DefaultPath,
		APIKey: DefaultAPIKey,
		Model:  DefaultModel,
		Prompt: DefaultPrompt,
	}

	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return ProbeConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return ProbeConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.Host = firstNonEmpty(os.Getenv("STREAMPROBE_HOST"), cfg.Host)
	cfg.Port = parseOptionalInt(os.Getenv("STREAMPROBE_PORT"), cfg.Port)
	cfg.Path = firstNonEmpty(os.Getenv("STREAMPROBE_PATH"), cfg.Path)
	cfg.APIKey = firstNonEmpty(os.Getenv("STREAMPROBE_API_KEY"), cfg.APIKey)
	cfg.Model = firstNonEmpty(os.Getenv("STREAMPROBE_MODEL"), cfg.Model)
	cfg.Prompt = firstNonEmpty(os.Getenv("STREAMPROBE_PROMPT"), cfg.Prompt)
	cfg.ReadTimeout = firstNonEmpty(os.Getenv("STREAMPROBE_READ_TIMEOUT"), cfg.ReadTimeout)
	cfg.LogDir = firstNonEmpty(os.Getenv("STREAMPROBE_LOG_DIR"), cfg.LogDir)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return ProbeConfig{}, fmt.Errorf("config: invalid port %d", cfg.Port)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		cfg.Path = "/" + cfg.Path
	}
	if _, err := cfg.ReadTimeoutDuration(); err != nil {
		return ProbeConfig{}, err
	}
	return cfg, nil
}

// ReadTimeoutDuration parses the configured read timeout. Empty means zero.
func (c ProbeConfig) ReadTimeoutDuration() (time.Duration, error) {
	v := strings.TrimSpace(c.ReadTimeout)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid read_timeout %q: %w", c.ReadTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: negative read_timeout %q", c.ReadTimeout)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseOptionalInt(value string, fallback int) int {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
