package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/theapemachine/bucketreaper/config"
	"github.com/theapemachine/bucketreaper/journal"
	"github.com/theapemachine/bucketreaper/logger"
	"github.com/theapemachine/bucketreaper/reaper"
	"github.com/theapemachine/bucketreaper/s3api"
)

var (
	cfg        = config.New()
	configFile string
	assumeYes  bool

	// newFactory builds the S3 client source from the loaded configuration.
	newFactory = func(c *config.Config) s3api.Factory {
		return s3api.NewFactory(
			s3api.WithProfile(c.Profile),
			s3api.WithEndpoint(c.Endpoint),
			s3api.WithPathStyle(c.PathStyle),
		)
	}

	errConfirmationRequired = errors.New("refusing to delete without --yes (use --dry-run to preview)")
)

// rootCmd empties and deletes every bucket in the account.
var rootCmd = &cobra.Command{
	Use:   "bucketreaper",
	Short: "Empty and delete every S3 bucket in an AWS account",
	Long:  rootLong,
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Load(configFile, cmd.Flags()); err != nil {
			return err
		}

		cfg.ApplyLogging()

		return cfg.Validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !assumeYes && !cfg.DryRun {
			return errConfirmationRequired
		}

		r, err := newReaper(cmd)
		if err != nil {
			return err
		}

		summary, err := r.Run(cmd.Context())
		if jerr := recordRun(cmd, summary, err); jerr != nil {
			logger.Error("Failed to journal run", "run", summary.RunID, "error", jerr)
		}

		if err != nil {
			return fmt.Errorf("reaper run %s halted: %w", summary.RunID, err)
		}

		if len(summary.Failed) > 0 {
			logger.Warn("Some buckets could not be deleted", "failed", len(summary.Failed))
		}

		return nil
	},
}

/*
newReaper builds a reaper from the loaded configuration, reporting to the
command's stdout.
*/
func newReaper(cmd *cobra.Command) (*reaper.Reaper, error) {
	return reaper.New(
		reaper.WithFactory(newFactory(cfg)),
		reaper.WithRegion(cfg.Region),
		reaper.WithPrefix(cfg.Prefix),
		reaper.WithBatchSize(cfg.BatchSize),
		reaper.WithDryRun(cfg.DryRun),
		reaper.WithReporter(reaper.NewConsoleReporter(cmd.OutOrStdout(), cfg.DryRun)),
	)
}

/*
recordRun saves the outcome of a run to the journal, if one is configured.
The run's own context may be cancelled by now, so a fresh one is used.
*/
func recordRun(cmd *cobra.Command, summary *reaper.Summary, haltErr error) error {
	if cfg.JournalDir == "" {
		return nil
	}

	fj, err := journal.NewFileJournal(cfg.JournalDir)
	if err != nil {
		return err
	}

	return fj.Save(context.WithoutCancel(cmd.Context()), journal.FromSummary(summary, cfg.Region, cfg.Prefix, haltErr))
}

/*
Execute runs the root command with a context that is cancelled on SIGINT or
SIGTERM. This is called by main.main().
*/
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.bucketreaper/bucketreaper.yaml)")
	flags.String(config.KeyRegion, config.DefaultRegion, "region for account-wide calls (env REAPER_REGION)")
	flags.String(config.KeyProfile, "", "shared config profile to load credentials from")
	flags.String(config.KeyEndpoint, "", "custom S3 endpoint, e.g. http://localhost:4566")
	flags.Bool(config.KeyPathStyle, false, "use path-style bucket addressing")
	flags.String(config.KeyPrefix, "", "only touch buckets whose name starts with this prefix")
	flags.Bool(config.KeyDryRun, false, "report what would be deleted without deleting anything")
	flags.Int(config.KeyBatchSize, config.MaxBatchSize, "keys per listing page and delete request (1-1000)")
	flags.String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")
	flags.String(config.KeyJournal, "", "directory to keep a JSON record of every run in")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "confirm that buckets and their contents may be deleted")
}

var rootLong = `
Bucket Reaper lists every bucket in the account and, one bucket at a time,
resolves its region, deletes every object (all versions and delete markers
when versioning is enabled) and then deletes the bucket itself.

A bucket that cannot be deleted is reported and skipped. Any other failure
stops the run.

This is irreversible. Nothing is deleted unless --yes is given; use --dry-run
to see what would be removed.
`
