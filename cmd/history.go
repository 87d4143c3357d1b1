package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/theapemachine/bucketreaper/journal"
)

var errNoJournal = errors.New("no journal configured (--journal-dir or REAPER_JOURNAL_DIR)")

/*
historyCmd shows past runs from the journal. With a run ID it prints that
run's full record as JSON.
*/
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past runs recorded in the journal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JournalDir == "" {
			return errNoJournal
		}

		fj, err := journal.NewFileJournal(cfg.JournalDir)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			record, err := fj.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		}

		records, err := fj.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTARTED\tDRY-RUN\tDELETED\tFAILED\tOBJECTS\tSTATUS")
		for _, r := range records {
			status := "complete"
			if r.Halted != "" {
				status = "halted"
			}

			fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%d\t%s\n",
				r.ID, r.Timestamp.Format(time.RFC3339), r.DryRun,
				len(r.Deleted), len(r.Failed), r.Objects, status)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
