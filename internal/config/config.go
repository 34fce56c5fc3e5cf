package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const appDir = "nuntius"

// File is the on-disk YAML configuration.
type File struct {
	Paths         []string `yaml:"paths"`
	MinimumFreeGB int      `yaml:"minimumFreeGB"`
	Metrics       bool     `yaml:"metrics"`
}

// DefaultDataPath returns the platform data directory for the store.
func DefaultDataPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDir, "db"), nil
}

// DefaultFilePath is where the CLI looks for its YAML file.
func DefaultFilePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDir, "config.yaml"), nil
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (File, error) {
	var f File

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return f, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return f, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if len(f.Paths) == 0 {
		p, err := DefaultDataPath()
		if err != nil {
			return f, err
		}
		f.Paths = []string{p}
	}

	if f.MinimumFreeGB < 0 {
		f.MinimumFreeGB = 0
	}

	return f, nil
}
