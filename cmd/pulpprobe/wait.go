package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pulpprobe/pulpprobe"
	"github.com/spf13/cobra"
)

const (
	defaultWaitTimeout  = 60 * time.Second
	defaultWaitInterval = 2 * time.Second
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Poll the server's status endpoint until it answers or a timeout elapses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")
		interval, _ := cmd.Flags().GetDuration("interval")
		return waitForServer(context.Background(), cfg, timeout, interval)
	},
}

func init() {
	waitCmd.Flags().Duration("timeout", defaultWaitTimeout, "how long to keep probing")
	waitCmd.Flags().Duration("interval", defaultWaitInterval, "delay between probes")
}

// waitForServer probes the status endpoint until it responds cleanly.
func waitForServer(ctx context.Context, cfg *pulpprobe.Config, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for {
		_, err := pulpprobe.ServerStatus(ctx, cfg)
		if err == nil {
			return nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return fmt.Errorf("wait: timeout waiting for %s (last error: %v)", cfg.BaseURL, lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
