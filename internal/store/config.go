package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"

	DefaultTimeout  = 30 * time.Second
	DefaultLogLevel = "info"
)

type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:5000.
	BaseURL string `yaml:"baseURL,omitempty"`
	// Timeout bounds each backend request.
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	LogLevel string        `yaml:"logLevel,omitempty"`

	TUI *TUIConfig `yaml:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is one of: auto|light|dark.
	Theme string `yaml:"theme,omitempty"`
	// ColorProfile is one of: auto|truecolor|ansi256|ansi|ascii.
	ColorProfile string `yaml:"colorProfile,omitempty"`
}

// ConfigDir is ~/.itask unless ITASK_CONFIG_DIR is set.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("ITASK_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".itask"), nil
}

func ConfigPath(dir string) string {
	return filepath.Join(dir, configFileName)
}

// LoadConfig reads dir/config.yaml. A missing file yields defaults.
func LoadConfig(dir string) (*Config, error) {
	cfg := &Config{}
	b, err := os.ReadFile(ConfigPath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func SaveConfig(dir string, cfg *Config) error {
	if cfg == nil {
		return errors.New("save config: nil config")
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(ConfigPath(dir), b, 0o600)
}

func (c *Config) applyDefaults() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (c *Config) ThemePreference() string {
	if c == nil || c.TUI == nil {
		return ""
	}
	return c.TUI.Theme
}

func (c *Config) ColorProfilePreference() string {
	if c == nil || c.TUI == nil {
		return ""
	}
	return c.TUI.ColorProfile
}
