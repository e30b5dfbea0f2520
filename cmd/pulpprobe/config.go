package main

import (
	"fmt"
	"strings"

	"github.com/pulpprobe/pulpprobe"
	"github.com/spf13/viper"
)

// loadSettings loads the settings cache once per invocation and applies the
// logging section.
func loadSettings() (*pulpprobe.Config, error) {
	cache := pulpprobe.NewConfigCache(viper.GetString("config"))
	cfg, err := cache.GetOrLoad()
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *pulpprobe.Config) error {
	level, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}

	var logger *pulpprobe.Logger
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "json":
		logger = pulpprobe.NewJSONLogger(level)
	case "text", "":
		logger = pulpprobe.NewLogger(level)
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json)", cfg.Logging.Format)
	}
	pulpprobe.SetDefaultLogger(logger)

	masking := true
	if cfg.Logging.MaskSensitive != nil {
		masking = *cfg.Logging.MaskSensitive
	}
	pulpprobe.EnableMasking(masking)
	return nil
}

func parseLogLevel(s string) (pulpprobe.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return pulpprobe.LogLevelError, nil
	case "warn", "warning":
		return pulpprobe.LogLevelWarn, nil
	case "info", "":
		return pulpprobe.LogLevelInfo, nil
	case "debug":
		return pulpprobe.LogLevelDebug, nil
	default:
		return pulpprobe.LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", s)
	}
}
