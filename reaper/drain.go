package reaper

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/theapemachine/bucketreaper/s3api"
)

// versionCursor is the pair of markers ListObjectVersions resumes from.
type versionCursor struct {
	key       string
	versionID string
}

/*
DrainObjects removes everything stored in bucket and returns how many
entries it removed. Buckets whose versioning status is exactly "Enabled" are
drained version by version, delete markers included; all others are drained
by key. Each listing page becomes one delete batch.
*/
func (r *Reaper) DrainObjects(ctx context.Context, client s3api.API, bucket string) (int, error) {
	status, err := r.versioning(ctx, client, bucket)
	if err != nil {
		return 0, err
	}

	if types.BucketVersioningStatus(status) == types.BucketVersioningStatusEnabled {
		return r.drainVersioned(ctx, client, bucket)
	}

	return r.drainUnversioned(ctx, client, bucket)
}

func (r *Reaper) drainVersioned(ctx context.Context, client s3api.API, bucket string) (int, error) {
	listing := pages(ctx, func(ctx context.Context, cursor versionCursor) (*s3.ListObjectVersionsOutput, versionCursor, bool, error) {
		input := &s3.ListObjectVersionsInput{
			Bucket:  aws.String(bucket),
			MaxKeys: aws.Int32(int32(r.batchSize)),
		}
		if cursor.key != "" {
			input.KeyMarker = aws.String(cursor.key)
		}
		if cursor.versionID != "" {
			input.VersionIdMarker = aws.String(cursor.versionID)
		}

		out, err := client.ListObjectVersions(ctx, input)
		if err != nil {
			return nil, cursor, false, err
		}

		next := versionCursor{
			key:       aws.ToString(out.NextKeyMarker),
			versionID: aws.ToString(out.NextVersionIdMarker),
		}
		return out, next, aws.ToBool(out.IsTruncated) && next.key != "", nil
	})

	total := 0
	for page, err := range listing {
		if err != nil {
			return total, newError(ErrorTypeListObjects, bucket, err)
		}

		batch := make([]types.ObjectIdentifier, 0, len(page.Versions)+len(page.DeleteMarkers))
		for _, version := range page.Versions {
			batch = append(batch, types.ObjectIdentifier{Key: version.Key, VersionId: version.VersionId})
		}
		for _, marker := range page.DeleteMarkers {
			batch = append(batch, types.ObjectIdentifier{Key: marker.Key, VersionId: marker.VersionId})
		}

		if len(batch) == 0 {
			continue
		}

		if err := r.deleteBatch(ctx, client, bucket, batch); err != nil {
			return total, err
		}

		for _, id := range batch {
			r.report.VersionDeleted(bucket, aws.ToString(id.Key), aws.ToString(id.VersionId))
		}
		total += len(batch)
	}

	return total, nil
}

func (r *Reaper) drainUnversioned(ctx context.Context, client s3api.API, bucket string) (int, error) {
	listing := pages(ctx, func(ctx context.Context, token string) (*s3.ListObjectsV2Output, string, bool, error) {
		input := &s3.ListObjectsV2Input{
			Bucket:  aws.String(bucket),
			MaxKeys: aws.Int32(int32(r.batchSize)),
		}
		if token != "" {
			input.ContinuationToken = aws.String(token)
		}

		out, err := client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, token, false, err
		}

		next := aws.ToString(out.NextContinuationToken)
		return out, next, aws.ToBool(out.IsTruncated) && next != "", nil
	})

	total := 0
	for page, err := range listing {
		if err != nil {
			return total, newError(ErrorTypeListObjects, bucket, err)
		}

		if len(page.Contents) == 0 {
			continue
		}

		batch := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, object := range page.Contents {
			batch = append(batch, types.ObjectIdentifier{Key: object.Key})
		}

		if err := r.deleteBatch(ctx, client, bucket, batch); err != nil {
			return total, err
		}

		for _, id := range batch {
			r.report.ObjectDeleted(bucket, aws.ToString(id.Key))
		}
		total += len(batch)
	}

	return total, nil
}

/*
deleteBatch submits batch in DeleteObjects calls of at most batchSize keys.
Per-key failures in the response are treated like a failed call.
*/
func (r *Reaper) deleteBatch(ctx context.Context, client s3api.API, bucket string, batch []types.ObjectIdentifier) error {
	if r.dryRun {
		return nil
	}

	for start := 0; start < len(batch); start += r.batchSize {
		end := min(start+r.batchSize, len(batch))

		out, err := client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{
				Objects: batch[start:end],
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return newError(ErrorTypeDeleteObjects, bucket, err)
		}

		if len(out.Errors) > 0 {
			return newError(ErrorTypeDeleteObjects, bucket, &BatchError{Failed: out.Errors})
		}

		r.log.Debug("Deleted batch", "bucket", bucket, "keys", end-start)
	}

	return nil
}
