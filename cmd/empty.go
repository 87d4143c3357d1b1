package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/bucketreaper/logger"
)

// emptyCmd drains the named buckets but leaves the buckets in place.
var emptyCmd = &cobra.Command{
	Use:   "empty <bucket>...",
	Short: "Delete every object in the named buckets, keeping the buckets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !assumeYes && !cfg.DryRun {
			return errConfirmationRequired
		}

		r, err := newReaper(cmd)
		if err != nil {
			return err
		}

		removed, err := r.Empty(cmd.Context(), args...)
		if err != nil {
			return fmt.Errorf("failed to empty buckets: %w", err)
		}

		logger.Info("Buckets emptied", "buckets", len(args), "objects", removed, "dry_run", cfg.DryRun)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(emptyCmd)
}
