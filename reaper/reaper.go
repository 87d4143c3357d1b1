/*
Package reaper empties and deletes S3 buckets. For every bucket it resolves
the region, removes all objects (every version and delete marker when
versioning is enabled), then deletes the bucket. Buckets are processed one at
a time, in listing order.
*/
package reaper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/theapemachine/bucketreaper/config"
	"github.com/theapemachine/bucketreaper/logger"
	"github.com/theapemachine/bucketreaper/s3api"
)

// Option configures a Reaper.
type Option func(*Reaper)

// WithFactory sets the source of region-bound S3 clients. Required.
func WithFactory(factory s3api.Factory) Option {
	return func(r *Reaper) {
		r.clients = factory
	}
}

// WithRegion sets the region used for account-wide calls.
func WithRegion(region string) Option {
	return func(r *Reaper) {
		r.region = region
	}
}

// WithPrefix limits the run to buckets whose name starts with prefix.
func WithPrefix(prefix string) Option {
	return func(r *Reaper) {
		r.prefix = prefix
	}
}

// WithBatchSize caps the keys per listing page and per DeleteObjects call.
func WithBatchSize(size int) Option {
	return func(r *Reaper) {
		r.batchSize = size
	}
}

// WithDryRun makes the reaper list and report without deleting anything.
func WithDryRun(dryRun bool) Option {
	return func(r *Reaper) {
		r.dryRun = dryRun
	}
}

// WithReporter sets where deletion events are reported.
func WithReporter(reporter Reporter) Option {
	return func(r *Reaper) {
		r.report = reporter
	}
}

/*
Reaper drives the teardown. It holds no per-bucket state; each bucket gets a
client for its own region from the factory.
*/
type Reaper struct {
	clients   s3api.Factory
	region    string
	prefix    string
	batchSize int
	dryRun    bool
	report    Reporter
	log       *log.Logger
}

/*
New creates a Reaper. Without options it uses us-east-1 for account-wide
calls, batches of 1000 and discards reports.
*/
func New(opts ...Option) (*Reaper, error) {
	r := &Reaper{
		region:    config.DefaultRegion,
		batchSize: config.MaxBatchSize,
		report:    discardReporter{},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.clients == nil {
		return nil, errors.New("reaper: client factory is required")
	}

	if r.region == "" {
		r.region = config.DefaultRegion
	}

	if r.batchSize <= 0 || r.batchSize > config.MaxBatchSize {
		r.batchSize = config.MaxBatchSize
	}

	r.log = logger.WithComponent("reaper")

	return r, nil
}

/*
Outcome is the result of one delete-bucket attempt. Err is set when the
service refused the deletion; such failures never halt a run.
*/
type Outcome struct {
	Bucket  string
	Region  string
	Deleted bool
	Err     error
}

/*
Summary collects what a run did. Deleted lists buckets removed, or that
would have been removed in a dry run.
*/
type Summary struct {
	RunID    string
	DryRun   bool
	Buckets  int
	Skipped  int
	Objects  int
	Deleted  []string
	Failed   []Outcome
	Duration time.Duration
}

func (s *Summary) record(outcome Outcome) {
	if outcome.Deleted {
		s.Deleted = append(s.Deleted, outcome.Bucket)
		return
	}
	s.Failed = append(s.Failed, outcome)
}

func (s *Summary) logTo(l *log.Logger) {
	l.Info("===== Reaper Summary =====",
		"run", s.RunID,
		"dry_run", s.DryRun,
		"buckets", s.Buckets,
		"skipped", s.Skipped,
		"deleted", len(s.Deleted),
		"failed", len(s.Failed),
		"objects", s.Objects,
		"duration", s.Duration.Round(time.Millisecond))

	for _, failed := range s.Failed {
		l.Warn("Bucket left behind",
			"bucket", failed.Bucket,
			"region", failed.Region,
			"reason", s3api.Code(failed.Err),
			"error", failed.Err)
	}
}

/*
Run lists every bucket in the account and, one bucket at a time, resolves its
region, drains it and deletes it. A failed bucket deletion is reported and
the run moves on; any other failure stops the run and is returned along with
the partial Summary.
*/
func (r *Reaper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), DryRun: r.dryRun}
	runLog := r.log.With("run", summary.RunID)

	defer func() {
		summary.Duration = time.Since(start)
		summary.logTo(runLog)
	}()

	home, err := r.client(ctx, "", r.region)
	if err != nil {
		return summary, err
	}

	names, err := r.ListBuckets(ctx, home)
	if err != nil {
		return summary, err
	}

	runLog.Info("Starting run", "buckets", len(names), "prefix", r.prefix, "dry_run", r.dryRun)

	for _, name := range names {
		if !r.matches(name) {
			runLog.Debug("Skipping bucket", "bucket", name, "prefix", r.prefix)
			summary.Skipped++
			continue
		}

		summary.Buckets++

		outcome, removed, err := r.reap(ctx, home, name, runLog)
		summary.Objects += removed
		if err != nil {
			return summary, err
		}

		summary.record(outcome)
	}

	return summary, nil
}

func (r *Reaper) reap(ctx context.Context, home s3api.API, bucket string, parent *log.Logger) (Outcome, int, error) {
	region, err := r.ResolveRegion(ctx, home, bucket)
	if err != nil {
		return Outcome{Bucket: bucket}, 0, err
	}

	client, err := r.client(ctx, bucket, region)
	if err != nil {
		return Outcome{Bucket: bucket, Region: region}, 0, err
	}

	bucketLog := logger.WithBucket(parent, bucket, region)

	bucketLog.Info("Deleting all objects in bucket")
	removed, err := r.DrainObjects(ctx, client, bucket)
	if err != nil {
		var reaperErr *Error
		if errors.As(err, &reaperErr) {
			reaperErr.WithRegion(region)
		}
		return Outcome{Bucket: bucket, Region: region}, removed, err
	}

	bucketLog.Info("Deleting bucket", "objects", removed)
	outcome := r.DeleteBucket(ctx, client, bucket)
	outcome.Region = region

	return outcome, removed, nil
}

/*
Empty drains the named buckets without deleting them and returns the number
of objects and versions removed.
*/
func (r *Reaper) Empty(ctx context.Context, buckets ...string) (int, error) {
	home, err := r.client(ctx, "", r.region)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, bucket := range buckets {
		region, err := r.ResolveRegion(ctx, home, bucket)
		if err != nil {
			return total, err
		}

		client, err := r.client(ctx, bucket, region)
		if err != nil {
			return total, err
		}

		logger.WithBucket(r.log, bucket, region).Info("Emptying bucket")
		removed, err := r.DrainObjects(ctx, client, bucket)
		total += removed
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// BucketInfo describes a bucket without touching its contents.
type BucketInfo struct {
	Name       string
	Region     string
	Versioning string
}

/*
Inventory lists the buckets the run would consider, with their region and
versioning status. It never deletes anything.
*/
func (r *Reaper) Inventory(ctx context.Context) ([]BucketInfo, error) {
	home, err := r.client(ctx, "", r.region)
	if err != nil {
		return nil, err
	}

	names, err := r.ListBuckets(ctx, home)
	if err != nil {
		return nil, err
	}

	infos := make([]BucketInfo, 0, len(names))
	for _, name := range names {
		if !r.matches(name) {
			continue
		}

		region, err := r.ResolveRegion(ctx, home, name)
		if err != nil {
			return infos, err
		}

		client, err := r.client(ctx, name, region)
		if err != nil {
			return infos, err
		}

		status, err := r.versioning(ctx, client, name)
		if err != nil {
			return infos, err
		}

		if status == "" {
			status = "Disabled"
		}

		infos = append(infos, BucketInfo{Name: name, Region: region, Versioning: status})
	}

	return infos, nil
}

func (r *Reaper) matches(bucket string) bool {
	return r.prefix == "" || strings.HasPrefix(bucket, r.prefix)
}

func (r *Reaper) client(ctx context.Context, bucket, region string) (s3api.API, error) {
	client, err := r.clients(ctx, region)
	if err != nil {
		return nil, newError(ErrorTypeClient, bucket, err).WithRegion(region)
	}
	return client, nil
}
