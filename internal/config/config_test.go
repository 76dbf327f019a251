package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
)

var envVars = []string{
	"CAPPY_CONFIG", "CAPPY_BASE_DIR", "CAPPY_INTERVAL_SECONDS", "CAPPY_AUTO_CAPTURE",
	"CAPPY_SAMPLE_SIZE", "CAPPY_MIN_SCREENSHOT_BYTES", "CAPPY_SCREENCAPTURE_FALLBACK",
	"CAPPY_LOG_LEVEL", "CAPPY_LOG_FORMAT", "CAPPY_HEADLESS", "CAPPY_HOTKEY_ENABLED",
	"CAPPY_HOTKEY_KEYS", "CAPPY_CONTROL_ENABLED", "CAPPY_CONTROL_ADDR",
}

// clearEnv isolates a test from the developer's environment and working directory.
func clearEnv(t *testing.T) string {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Interval != 60*time.Second {
		t.Errorf("Interval = %v, want 60s", cfg.Interval)
	}
	if !cfg.AutoCapture {
		t.Error("AutoCapture should default to true")
	}
	if cfg.SampleSize != 100 {
		t.Errorf("SampleSize = %d, want 100", cfg.SampleSize)
	}
	if cfg.MinScreenshotBytes != 1000 {
		t.Errorf("MinScreenshotBytes = %d, want 1000", cfg.MinScreenshotBytes)
	}
	if !cfg.ScreencaptureFallback {
		t.Error("ScreencaptureFallback should default to true")
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging = %s/%s, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Hotkey.Enabled {
		t.Error("hotkey should be disabled by default")
	}
	if filepath.Base(cfg.BaseDir) != AppName {
		t.Errorf("BaseDir = %q, want it to end in %q", cfg.BaseDir, AppName)
	}
	if got := cfg.CapturesDir(); got != filepath.Join(cfg.BaseDir, "Captures") {
		t.Errorf("CapturesDir() = %q", got)
	}
	if got := cfg.LogsDir(); got != filepath.Join(cfg.BaseDir, "Logs") {
		t.Errorf("LogsDir() = %q", got)
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := clearEnv(t)
	t.Setenv("CAPPY_BASE_DIR", dir)
	t.Setenv("CAPPY_INTERVAL_SECONDS", "30")
	t.Setenv("CAPPY_AUTO_CAPTURE", "false")
	t.Setenv("CAPPY_SAMPLE_SIZE", "64")
	t.Setenv("CAPPY_LOG_LEVEL", "DEBUG")
	t.Setenv("CAPPY_LOG_FORMAT", "json")
	t.Setenv("CAPPY_HOTKEY_ENABLED", "1")
	t.Setenv("CAPPY_HOTKEY_KEYS", "cmd, shift ,k")
	t.Setenv("CAPPY_CONTROL_ENABLED", "true")
	t.Setenv("CAPPY_CONTROL_ADDR", "127.0.0.1:9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, dir)
	}
	if cfg.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Interval)
	}
	if cfg.AutoCapture {
		t.Error("AutoCapture should be false")
	}
	if cfg.SampleSize != 64 {
		t.Errorf("SampleSize = %d, want 64", cfg.SampleSize)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("logging = %s/%s, want debug/json", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.Control.Enabled || cfg.Control.Addr != "127.0.0.1:9999" {
		t.Errorf("Control = %+v", cfg.Control)
	}
	want := []string{"cmd", "shift", "k"}
	if len(cfg.Hotkey.Keys) != len(want) {
		t.Fatalf("Hotkey.Keys = %v, want %v", cfg.Hotkey.Keys, want)
	}
	for i := range want {
		if cfg.Hotkey.Keys[i] != want[i] {
			t.Errorf("Hotkey.Keys[%d] = %q, want %q", i, cfg.Hotkey.Keys[i], want[i])
		}
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := clearEnv(t)
	path := filepath.Join(dir, "custom.yaml")
	content := "base_dir: " + dir + "\ninterval_seconds: 15\nlog_format: json\nhotkey:\n  enabled: true\n  keys: [alt, n]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAPPY_INTERVAL_SECONDS", "45")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Interval != 45*time.Second {
		t.Errorf("Interval = %v, want env override of 45s", cfg.Interval)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json from file", cfg.LogFormat)
	}
	if !cfg.Hotkey.Enabled || len(cfg.Hotkey.Keys) != 2 {
		t.Errorf("Hotkey = %+v, want enabled with 2 keys", cfg.Hotkey)
	}
	if len(cfg.Source) != 2 || cfg.Source[1] != path {
		t.Errorf("Source = %v, want [<defaults> %s]", cfg.Source, path)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := clearEnv(t)
	// godotenv never overrides variables already set, so drop the empty placeholder.
	os.Unsetenv("CAPPY_SAMPLE_SIZE")
	if err := os.WriteFile(filepath.Join(dir, EnvFile), []byte("CAPPY_SAMPLE_SIZE=32\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CAPPY_SAMPLE_SIZE") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SampleSize != 32 {
		t.Errorf("SampleSize = %d, want 32 from .env", cfg.SampleSize)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	dir := clearEnv(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	if !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("Load(missing) error = %v, want CONFIG_INVALID", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.IntervalSeconds = 0 }},
		{"zero sample", func(c *Config) { c.SampleSize = 0 }},
		{"empty base", func(c *Config) { c.BaseDir = "" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"hotkey without keys", func(c *Config) { c.Hotkey = HotkeyConfig{Enabled: true} }},
		{"hotkey without modifier", func(c *Config) { c.Hotkey = HotkeyConfig{Enabled: true, Keys: []string{"m"}} }},
		{"hotkey with two keys", func(c *Config) { c.Hotkey = HotkeyConfig{Enabled: true, Keys: []string{"ctrl", "m", "n"}} }},
		{"control without addr", func(c *Config) { c.Control = ControlConfig{Enabled: true} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}

	// A bad chord is fine while the hotkey is off.
	cfg := Default()
	cfg.Hotkey.Keys = []string{"m"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled bad hotkey: Validate() = %v, want nil", err)
	}
	cfg.Hotkey.Enabled = true
	if err := cfg.Validate(); !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("enabled bad hotkey: Validate() = %v, want CONFIG_INVALID", err)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "not-a-number")
	t.Setenv("TEST_BOOL_ONE", "1")
	t.Setenv("TEST_BOOL_FALSE", "false")
	t.Setenv("TEST_LIST", " a, ,b ")

	if v := getEnvInt("TEST_INT", 0); v != 42 {
		t.Errorf("getEnvInt = %d, want 42", v)
	}
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want 100", v)
	}
	if !getEnvBool("TEST_BOOL_ONE", false) {
		t.Error("getEnvBool should return true for '1'")
	}
	if getEnvBool("TEST_BOOL_FALSE", true) {
		t.Error("getEnvBool should return false for 'false'")
	}
	if got := getEnvList("TEST_LIST", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("getEnvList = %v, want [a b]", got)
	}
	if v := getEnv("CAPPY_NONEXISTENT_KEY", "default"); v != "default" {
		t.Errorf("getEnv = %q, want default", v)
	}
}
