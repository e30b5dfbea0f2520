package main

import (
	"context"
	"fmt"

	"github.com/pulpprobe/pulpprobe"
	"github.com/pulpprobe/pulpprobe/internal/store"
	"github.com/pulpprobe/pulpprobe/internal/tasks"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task <href>",
	Short: "Poll a Pulp 3 task href to completion and print its created resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}

		var opts []tasks.Option
		st, err := store.FromConfig(cfg.Store)
		if err != nil {
			return err
		}
		if st != nil {
			defer func() { _ = st.Close() }()
			opts = append(opts, tasks.WithRecorder(st))
		}

		created, err := pulpprobe.MonitorTask(context.Background(), cfg, args[0], opts...)
		if err != nil {
			return err
		}
		for _, href := range created {
			fmt.Println(href)
		}
		return nil
	},
}
