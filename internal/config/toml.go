// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API      APIConfig      `toml:"api"`
	Log      LogConfig      `toml:"log"`
	Download DownloadConfig `toml:"download"`
	UI       UIConfig       `toml:"ui"`
}

// APIConfig maps settings of the survey API.
type APIConfig struct {
	BaseURL *string `toml:"base-url"`
	Timeout *string `toml:"timeout"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// DownloadConfig maps where exports and images are saved.
type DownloadConfig struct {
	Dir *string `toml:"dir"`
}

// UIConfig maps dashboard settings.
type UIConfig struct {
	Theme *string `toml:"theme"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if cfg.API.Timeout != nil {
		if _, err := ParseTimeout(*cfg.API.Timeout); err != nil {
			return FileConfig{}, err
		}
	}
	return cfg, nil
}

// ParseTimeout parses a request timeout such as "30s".
func ParseTimeout(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be > 0")
	}
	return d, nil
}
