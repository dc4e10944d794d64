package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/threatintel"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Threat feed operations",
}

var feedsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one threat feed refresh cycle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd, func(ctx context.Context, refresher *threatintel.Refresher, store core.ReputationStore) error {
			defer store.Close()

			report, err := refresher.RunOnce(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FEED\tENTRIES\tERROR")
			for _, f := range report.PerFeed {
				errText := "-"
				if f.Err != nil {
					errText = f.Err.Error()
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", f.Name, f.Entries, errText)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nUnique: %d  Inserted: %d  Blocklist size: %d\n",
				report.Unique, report.Inserted, report.Size)
			return nil
		})
	},
}

func init() {
	feedsCmd.AddCommand(feedsRefreshCmd)
}
