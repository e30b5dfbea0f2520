package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "pulpprobe",
	Short: "Probe a remote Pulp server: status, readiness, task monitoring",
}

func init() {
	// Defaults
	v := viper.GetViper()
	v.SetDefault("config", "")

	// Environment variables support: PULPPROBE_CONFIG, ...
	v.SetEnvPrefix("PULPPROBE")
	v.AutomaticEnv()
	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a settings yaml (default: XDG search path)")
	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
