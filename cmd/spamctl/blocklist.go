package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-evidence-engine/internal/core"
)

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "Inspect and edit the blocklisted domain set",
}

var blocklistAddCmd = &cobra.Command{
	Use:   "add <domain...>",
	Short: "Add domains to the blocklist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd, func(ctx context.Context, store core.ReputationStore) error {
			defer store.Close()

			inserted, err := store.BulkAdd(ctx, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d new domain(s)\n", inserted)
			return nil
		})
	},
}

var blocklistCheckCmd = &cobra.Command{
	Use:   "check <domain>",
	Short: "Report whether a domain is blocklisted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd, func(ctx context.Context, store core.ReputationStore) error {
			defer store.Close()

			if store.Contains(ctx, args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is blocklisted\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not blocklisted\n", args[0])
			}
			return nil
		})
	},
}

var blocklistSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Print the number of blocklisted domains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd, func(ctx context.Context, store core.ReputationStore) error {
			defer store.Close()

			size, err := store.Size(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), size)
			return nil
		})
	},
}

func init() {
	blocklistCmd.AddCommand(blocklistAddCmd)
	blocklistCmd.AddCommand(blocklistCheckCmd)
	blocklistCmd.AddCommand(blocklistSizeCmd)
}
