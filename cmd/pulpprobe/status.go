package main

import (
	"context"
	"fmt"

	"github.com/pulpprobe/pulpprobe"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the server's status endpoint and print version info",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		body, err := pulpprobe.ServerStatus(context.Background(), cfg)
		if err != nil {
			return err
		}
		for _, v := range body.Get("versions").Array() {
			fmt.Printf("%s: %s\n", v.Get("component").String(), v.Get("version").String())
		}
		return nil
	},
}
