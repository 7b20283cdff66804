// Package config loads optional user defaults for the zhc CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user defaults read from the config file. Zero values mean
// "not set": command-line flags and built-in defaults win.
type Config struct {
	// HistoryFile overrides the default history file path.
	HistoryFile string `yaml:"history_file"`

	// Top overrides the default ranking depth for analyze.
	Top int `yaml:"top"`

	// Backup, when set, overrides whether clean takes a backup.
	Backup *bool `yaml:"backup"`
}

// DefaultPath returns the conventional config location, e.g.
// ~/.config/zhc/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, "zhc", "config.yaml"), nil
}

// Load reads the config at path. A missing file is not an error and yields
// the zero Config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
