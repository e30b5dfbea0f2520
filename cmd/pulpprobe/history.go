package main

import (
	"context"
	"fmt"

	"github.com/pulpprobe/pulpprobe/internal/store"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recorded task outcomes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		st, err := store.FromConfig(cfg.Store)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("history: the run-history store is disabled in settings")
		}
		defer func() { _ = st.Close() }()

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := st.List(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("#%d %s state=%s failed=%t took=%dms at=%s\n",
				r.ID, r.Ref, r.State, r.Failed, r.DurationMS, r.RanAt)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum number of entries to print (0 = all)")
}
