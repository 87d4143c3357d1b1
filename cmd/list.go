package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

/*
listCmd prints the buckets a run would consider, with their region and
versioning status. It never deletes anything.
*/
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List buckets with their region and versioning status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReaper(cmd)
		if err != nil {
			return err
		}

		infos, err := r.Inventory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list buckets: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BUCKET\tREGION\tVERSIONING")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Region, info.Versioning)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
