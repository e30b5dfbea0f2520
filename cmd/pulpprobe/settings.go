package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the effective settings as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		redact, _ := cmd.Flags().GetBool("redact")
		if redact {
			cfg = cfg.Clone()
			if cfg.Password != "" {
				cfg.Password = "***"
			}
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	settingsCmd.Flags().Bool("redact", true, "replace the password with a placeholder")
}
