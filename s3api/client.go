// Package s3api defines the slice of the S3 API the reaper depends on and a
// factory that hands out region-bound clients.
package s3api

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/theapemachine/bucketreaper/logger"
)

// API is the subset of *s3.Client used to empty and delete buckets.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	GetBucketVersioning(ctx context.Context, params *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error)
	ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
}

var _ API = (*s3.Client)(nil)

/*
Factory returns a client bound to region. The reaper asks for one client per
bucket, so implementations are free to cache by region.
*/
type Factory func(ctx context.Context, region string) (API, error)

// FactoryOption configures the clients built by NewFactory.
type FactoryOption func(*factory)

// WithProfile selects a named profile from the shared AWS config files.
func WithProfile(profile string) FactoryOption {
	return func(f *factory) {
		f.profile = profile
	}
}

// WithEndpoint points every client at a custom S3 endpoint (LocalStack, MinIO).
func WithEndpoint(endpoint string) FactoryOption {
	return func(f *factory) {
		f.endpoint = endpoint
	}
}

// WithPathStyle toggles path-style bucket addressing.
func WithPathStyle(enabled bool) FactoryOption {
	return func(f *factory) {
		f.pathStyle = enabled
	}
}

type factory struct {
	profile   string
	endpoint  string
	pathStyle bool
	clients   map[string]API
}

/*
NewFactory builds a Factory backed by the SDK's default credential chain.
Clients are created on first use of a region and reused afterwards.
*/
func NewFactory(opts ...FactoryOption) Factory {
	f := &factory{clients: make(map[string]API)}

	for _, opt := range opts {
		opt(f)
	}

	return f.client
}

func (f *factory) client(ctx context.Context, region string) (API, error) {
	if region == "" {
		return nil, fmt.Errorf("s3api: region is required")
	}

	if client, ok := f.clients[region]; ok {
		return client, nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if f.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(f.profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3api: failed to load AWS config for %s: %w", region, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
		}
		o.UsePathStyle = f.pathStyle
	})

	logger.Debug("Created S3 client", "region", region, "endpoint", f.endpoint)
	f.clients[region] = client

	return client, nil
}
