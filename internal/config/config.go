// Package config handles application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/hotkey"
)

// AppName names the application directory and notification titles.
const AppName = "mac-cappy"

// DefaultFileName is read from the working directory when no config path is given.
const DefaultFileName = "cappy.yaml"

// EnvFile is loaded into the process environment when present.
const EnvFile = ".env"

type Config struct {
	BaseDir               string        `yaml:"base_dir"`
	Interval              time.Duration `yaml:"-"`
	IntervalSeconds       int           `yaml:"interval_seconds"`
	AutoCapture           bool          `yaml:"auto_capture"`
	SampleSize            int           `yaml:"sample_size"`
	MinScreenshotBytes    int64         `yaml:"min_screenshot_bytes"`
	ScreencaptureFallback bool          `yaml:"screencapture_fallback"`
	LogLevel              string        `yaml:"log_level"`
	LogFormat             string        `yaml:"log_format"`
	Headless              bool          `yaml:"headless"`
	Hotkey                HotkeyConfig  `yaml:"hotkey"`
	Control               ControlConfig `yaml:"control"`

	// Source lists where values came from, in order of application.
	Source []string `yaml:"-"`
}

// HotkeyConfig binds a global key combination to "Manual Capture + Note".
type HotkeyConfig struct {
	Enabled bool     `yaml:"enabled"`
	Keys    []string `yaml:"keys"`
}

// ControlConfig enables the loopback HTTP/WebSocket control API.
type ControlConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// CapturesDir holds date-partitioned screenshot directories.
func (c *Config) CapturesDir() string { return filepath.Join(c.BaseDir, "Captures") }

// LogsDir holds date-partitioned milestone logs.
func (c *Config) LogsDir() string { return filepath.Join(c.BaseDir, "Logs") }

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		BaseDir:               defaultBaseDir(),
		IntervalSeconds:       60,
		Interval:              60 * time.Second,
		AutoCapture:           true,
		SampleSize:            100,
		MinScreenshotBytes:    1000,
		ScreencaptureFallback: true,
		LogLevel:              "info",
		LogFormat:             "text",
		Hotkey: HotkeyConfig{
			Keys: []string{"ctrl", "shift", "m"},
		},
		Control: ControlConfig{Addr: "127.0.0.1:8765"},
		Source: []string{"<defaults>"},
	}
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, "Documents", AppName)
}

// Load layers defaults, an optional YAML file, an optional .env file and
// CAPPY_* environment variables, then validates the result. An explicit path
// that does not exist is an error; the implicit ./cappy.yaml may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = getEnv("CAPPY_CONFIG", DefaultFileName)
	}
	if err := cfg.mergeFile(candidate, explicit); err != nil {
		return nil, err
	}

	if err := godotenv.Load(EnvFile); err == nil {
		cfg.Source = append(cfg.Source, EnvFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "load "+EnvFile)
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return apperrors.Wrapf(err, apperrors.CodeConfigInvalid, "read config file %q", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.Wrapf(err, apperrors.CodeConfigInvalid, "parse config file %q", path)
	}
	c.Source = append(c.Source, path)
	return nil
}

func (c *Config) applyEnv() {
	c.BaseDir = getEnv("CAPPY_BASE_DIR", c.BaseDir)
	c.IntervalSeconds = getEnvInt("CAPPY_INTERVAL_SECONDS", c.IntervalSeconds)
	c.AutoCapture = getEnvBool("CAPPY_AUTO_CAPTURE", c.AutoCapture)
	c.SampleSize = getEnvInt("CAPPY_SAMPLE_SIZE", c.SampleSize)
	c.MinScreenshotBytes = int64(getEnvInt("CAPPY_MIN_SCREENSHOT_BYTES", int(c.MinScreenshotBytes)))
	c.ScreencaptureFallback = getEnvBool("CAPPY_SCREENCAPTURE_FALLBACK", c.ScreencaptureFallback)
	c.LogLevel = getEnv("CAPPY_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("CAPPY_LOG_FORMAT", c.LogFormat)
	c.Headless = getEnvBool("CAPPY_HEADLESS", c.Headless)
	c.Hotkey.Enabled = getEnvBool("CAPPY_HOTKEY_ENABLED", c.Hotkey.Enabled)
	c.Hotkey.Keys = getEnvList("CAPPY_HOTKEY_KEYS", c.Hotkey.Keys)
	c.Control.Enabled = getEnvBool("CAPPY_CONTROL_ENABLED", c.Control.Enabled)
	c.Control.Addr = getEnv("CAPPY_CONTROL_ADDR", c.Control.Addr)
}

func (c *Config) normalize() {
	c.BaseDir = expandHome(strings.TrimSpace(c.BaseDir))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Interval = time.Duration(c.IntervalSeconds) * time.Second
	for i, k := range c.Hotkey.Keys {
		c.Hotkey.Keys[i] = strings.ToLower(strings.TrimSpace(k))
	}
}

// Validate ensures values are present and sensible.
func (c *Config) Validate() error {
	switch {
	case c.BaseDir == "":
		return apperrors.New(apperrors.CodeConfigInvalid, "base_dir must not be empty")
	case c.IntervalSeconds <= 0:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "interval_seconds must be positive, got %d", c.IntervalSeconds)
	case c.SampleSize <= 0:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "sample_size must be positive, got %d", c.SampleSize)
	case c.MinScreenshotBytes < 0:
		return apperrors.New(apperrors.CodeConfigInvalid, "min_screenshot_bytes must not be negative")
	case c.Hotkey.Enabled && len(c.Hotkey.Keys) == 0:
		return apperrors.New(apperrors.CodeConfigInvalid, "hotkey.keys must not be empty when the hotkey is enabled")
	case c.Control.Enabled && strings.TrimSpace(c.Control.Addr) == "":
		return apperrors.New(apperrors.CodeConfigInvalid, "control.addr must not be empty when the control API is enabled")
	}
	if c.Hotkey.Enabled {
		if err := hotkey.Validate(c.Hotkey.Keys); err != nil {
			return err
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "unsupported log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "unsupported log format %q", c.LogFormat)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("base_dir=%s interval=%s auto_capture=%t sample_size=%d headless=%t hotkey=%t control=%t",
		c.BaseDir, c.Interval, c.AutoCapture, c.SampleSize, c.Headless, c.Hotkey.Enabled, c.Control.Enabled)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
