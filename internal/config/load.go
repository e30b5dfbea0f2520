package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// FileName is the settings file base name (without extension).
	FileName = "settings"
	// DirName is the per-user configuration directory.
	DirName = "pulpprobe"
)

// ErrNotFound is returned when no settings file exists in the search path.
var ErrNotFound = errors.New("config: settings file not found")

// searchPaths returns the directories probed for a settings file, in
// precedence order: $XDG_CONFIG_HOME/pulpprobe, ~/.config/pulpprobe, CWD.
func searchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, DirName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", DirName))
	}
	paths = append(paths, ".")
	return paths
}

// Load reads settings from the given path, or from the XDG search path when
// path is empty. Environment variables prefixed PULPPROBE_ override file
// values (PULPPROBE_BASE_URL, PULPPROBE_VERSION, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PULPPROBE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
	} else {
		v.SetConfigName(FileName)
		for _, p := range searchPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("config: read settings: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
