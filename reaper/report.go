package reaper

import (
	"fmt"
	"io"
)

/*
Reporter receives one call per deleted object, version or bucket and one per
failed bucket deletion. It is the user-facing record of a run; diagnostics go
to the logger.
*/
type Reporter interface {
	ObjectDeleted(bucket, key string)
	VersionDeleted(bucket, key, versionID string)
	BucketDeleted(bucket string)
	BucketFailed(bucket string, err error)
}

/*
ConsoleReporter writes one plain line per event. In dry-run mode the lines
describe what would have been deleted.
*/
type ConsoleReporter struct {
	w      io.Writer
	dryRun bool
}

// NewConsoleReporter returns a reporter writing to w.
func NewConsoleReporter(w io.Writer, dryRun bool) *ConsoleReporter {
	return &ConsoleReporter{w: w, dryRun: dryRun}
}

func (c *ConsoleReporter) verb() string {
	if c.dryRun {
		return "[dry-run] Would delete"
	}
	return "Deleted"
}

// ObjectDeleted reports a key removed from an unversioned bucket.
func (c *ConsoleReporter) ObjectDeleted(bucket, key string) {
	fmt.Fprintf(c.w, "%s object %s from bucket %s\n", c.verb(), key, bucket)
}

// VersionDeleted reports an object version or delete marker removed.
func (c *ConsoleReporter) VersionDeleted(bucket, key, versionID string) {
	fmt.Fprintf(c.w, "%s %s version %s from bucket %s\n", c.verb(), key, versionID, bucket)
}

// BucketDeleted reports a deleted bucket.
func (c *ConsoleReporter) BucketDeleted(bucket string) {
	fmt.Fprintf(c.w, "%s bucket %s\n", c.verb(), bucket)
}

// BucketFailed reports a bucket that could not be deleted.
func (c *ConsoleReporter) BucketFailed(bucket string, err error) {
	fmt.Fprintf(c.w, "Failed to delete bucket %s: %v\n", bucket, err)
}

type discardReporter struct{}

func (discardReporter) ObjectDeleted(string, string)          {}
func (discardReporter) VersionDeleted(string, string, string) {}
func (discardReporter) BucketDeleted(string)                  {}
func (discardReporter) BucketFailed(string, error)            {}
