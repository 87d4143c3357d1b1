package reaper

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/theapemachine/bucketreaper/config"
	"github.com/theapemachine/bucketreaper/s3api"
)

/*
ListBuckets returns the names of every bucket in the account, in listing
order, following continuation tokens until the service reports no more.
Names are collected up front so deletions cannot disturb the listing.
*/
func (r *Reaper) ListBuckets(ctx context.Context, client s3api.API) ([]string, error) {
	listing := pages(ctx, func(ctx context.Context, token string) (*s3.ListBucketsOutput, string, bool, error) {
		input := &s3.ListBucketsInput{}
		if token != "" {
			input.ContinuationToken = aws.String(token)
		}

		out, err := client.ListBuckets(ctx, input)
		if err != nil {
			return nil, "", false, err
		}

		next := aws.ToString(out.ContinuationToken)
		return out, next, next != "", nil
	})

	var names []string
	for page, err := range listing {
		if err != nil {
			return nil, newError(ErrorTypeListBuckets, "", err).WithRegion(r.region)
		}

		for _, bucket := range page.Buckets {
			names = append(names, aws.ToString(bucket.Name))
		}
	}

	return names, nil
}

/*
ResolveRegion looks up where bucket lives. S3 reports buckets in us-east-1
with an empty location constraint; that is normalized to "us-east-1". Any
other constraint is returned as is.
*/
func (r *Reaper) ResolveRegion(ctx context.Context, client s3api.API, bucket string) (string, error) {
	out, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", newError(ErrorTypeRegion, bucket, err)
	}

	if out.LocationConstraint == "" {
		return config.DefaultRegion, nil
	}

	return string(out.LocationConstraint), nil
}

/*
DeleteBucket deletes an emptied bucket. A refusal from the service (bucket
not empty, access denied, ...) is reported with the service's message and
returned in the Outcome; it is never returned as an error.
*/
func (r *Reaper) DeleteBucket(ctx context.Context, client s3api.API, bucket string) Outcome {
	outcome := Outcome{Bucket: bucket}

	if r.dryRun {
		r.report.BucketDeleted(bucket)
		outcome.Deleted = true
		return outcome
	}

	if _, err := client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		r.report.BucketFailed(bucket, err)
		r.log.Warn("Failed to delete bucket",
			"bucket", bucket,
			"reason", s3api.Code(err),
			"error", err)
		outcome.Err = s3api.Classify(err)
		return outcome
	}

	r.report.BucketDeleted(bucket)
	outcome.Deleted = true
	return outcome
}

func (r *Reaper) versioning(ctx context.Context, client s3api.API, bucket string) (string, error) {
	out, err := client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", newError(ErrorTypeVersioning, bucket, err)
	}

	return string(out.Status), nil
}
