/*
Package journal keeps a record of every reaper run on disk so that what was
deleted, and what was left behind, can be looked up after the console output
is gone.
*/
package journal

import (
	"context"
	"time"

	"github.com/theapemachine/bucketreaper/reaper"
	"github.com/theapemachine/bucketreaper/s3api"
)

/*
Record describes one run. It is written once, when the run ends, whether it
completed or was halted.
*/
type Record struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Region    string         `json:"region"`
	Prefix    string         `json:"prefix,omitempty"`
	DryRun    bool           `json:"dry_run"`
	Buckets   int            `json:"buckets"`
	Skipped   int            `json:"skipped"`
	Objects   int            `json:"objects"`
	Deleted   []string       `json:"deleted"`
	Failed    []FailedBucket `json:"failed,omitempty"`
	Halted    string         `json:"halted,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
}

// FailedBucket is a bucket the service refused to delete.
type FailedBucket struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

/*
Journal stores run records. Implementations return records newest first.
*/
type Journal interface {
	// Save stores a record, assigning an ID and timestamp when missing
	Save(ctx context.Context, record *Record) error

	// Get retrieves a record by run ID
	Get(ctx context.Context, id string) (*Record, error)

	// List returns every record
	List(ctx context.Context) ([]*Record, error)

	// Latest returns the most recent record
	Latest(ctx context.Context) (*Record, error)
}

/*
FromSummary builds the record of a run. haltErr is the error that stopped
the run, or nil if it ran to the end.
*/
func FromSummary(summary *reaper.Summary, region, prefix string, haltErr error) *Record {
	record := &Record{
		ID:        summary.RunID,
		Timestamp: time.Now(),
		Region:    region,
		Prefix:    prefix,
		DryRun:    summary.DryRun,
		Buckets:   summary.Buckets,
		Skipped:   summary.Skipped,
		Objects:   summary.Objects,
		Deleted:   append([]string{}, summary.Deleted...),
		Duration:  summary.Duration,
	}

	for _, outcome := range summary.Failed {
		failed := FailedBucket{Bucket: outcome.Bucket, Region: outcome.Region}
		if outcome.Err != nil {
			failed.Code = s3api.Code(outcome.Err)
			failed.Error = outcome.Err.Error()
		}
		record.Failed = append(record.Failed, failed)
	}

	if haltErr != nil {
		record.Halted = haltErr.Error()
	}

	return record
}
