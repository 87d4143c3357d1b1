package reaper

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/theapemachine/bucketreaper/s3api"
)

// fakeEntry is one stored object version or delete marker.
type fakeEntry struct {
	key       string
	versionID string
	marker    bool
}

func (e fakeEntry) after(key, versionID string) bool {
	if e.key != key {
		return e.key > key
	}
	return e.versionID > versionID
}

type fakeBucket struct {
	region     string
	versioning types.BucketVersioningStatus
	entries    []fakeEntry
	failDelete error
	failKeys   map[string]string
}

/*
fakeS3 is an in-memory S3 with real paging: listings resume strictly after
the last key (and version) returned, so deleting while paginating behaves as
it does against the service.
*/
type fakeS3 struct {
	buckets        map[string]*fakeBucket
	order          []string
	pageSize       int
	bucketPageSize int
	seq            int

	deleteObjectCalls []*s3.DeleteObjectsInput
	deleteBucketCalls []string
	listBucketCalls   int
}

var _ s3api.API = (*fakeS3)(nil)

func newFakeS3(pageSize int) *fakeS3 {
	return &fakeS3{buckets: make(map[string]*fakeBucket), pageSize: pageSize}
}

func (f *fakeS3) factory() s3api.Factory {
	return func(context.Context, string) (s3api.API, error) {
		return f, nil
	}
}

func (f *fakeS3) addBucket(name, region string, versioned bool) *fakeBucket {
	b := &fakeBucket{region: region, failKeys: make(map[string]string)}
	if versioned {
		b.versioning = types.BucketVersioningStatusEnabled
	}
	f.buckets[name] = b
	f.order = append(f.order, name)
	return b
}

func (f *fakeS3) nextVersion() string {
	f.seq++
	return fmt.Sprintf("v%06d", f.seq)
}

func (f *fakeS3) put(bucket string, keys ...string) {
	b := f.buckets[bucket]
	for _, key := range keys {
		if b.versioning == types.BucketVersioningStatusEnabled {
			b.entries = append(b.entries, fakeEntry{key: key, versionID: f.nextVersion()})
			continue
		}
		b.remove(key, "")
		b.entries = append(b.entries, fakeEntry{key: key, versionID: "null"})
	}
	b.sort()
}

func (f *fakeS3) putMarker(bucket, key string) {
	b := f.buckets[bucket]
	b.entries = append(b.entries, fakeEntry{key: key, versionID: f.nextVersion(), marker: true})
	b.sort()
}

func (b *fakeBucket) sort() {
	sort.Slice(b.entries, func(i, j int) bool {
		return b.entries[j].after(b.entries[i].key, b.entries[i].versionID)
	})
}

// remove drops the exact version, or every entry for key when versionID is "".
func (b *fakeBucket) remove(key, versionID string) {
	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.key == key && (versionID == "" || e.versionID == versionID) {
			continue
		}
		kept = append(kept, e)
	}
	b.entries = kept
}

func (f *fakeS3) limit(maxKeys *int32) int {
	n := f.pageSize
	if maxKeys != nil && int(*maxKeys) < n {
		n = int(*maxKeys)
	}
	return n
}

func (f *fakeS3) bucket(name *string) (*fakeBucket, error) {
	b, ok := f.buckets[aws.ToString(name)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"}
	}
	return b, nil
}

func (f *fakeS3) ListBuckets(_ context.Context, in *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.listBucketCalls++

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}

	end := len(f.order)
	if f.bucketPageSize > 0 && start+f.bucketPageSize < end {
		end = start + f.bucketPageSize
	}

	out := &s3.ListBucketsOutput{}
	for _, name := range f.order[start:end] {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(name)})
	}
	if end < len(f.order) {
		out.ContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeS3) GetBucketLocation(_ context.Context, in *s3.GetBucketLocationInput, _ ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	b, err := f.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}

	out := &s3.GetBucketLocationOutput{}
	if b.region != "us-east-1" {
		out.LocationConstraint = types.BucketLocationConstraint(b.region)
	}
	return out, nil
}

func (f *fakeS3) GetBucketVersioning(_ context.Context, in *s3.GetBucketVersioningInput, _ ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
	b, err := f.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	return &s3.GetBucketVersioningOutput{Status: b.versioning}, nil
}

func (f *fakeS3) ListObjectVersions(_ context.Context, in *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	b, err := f.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}

	keyMarker, versionMarker := aws.ToString(in.KeyMarker), aws.ToString(in.VersionIdMarker)
	if keyMarker != "" && versionMarker == "" {
		versionMarker = "\uffff"
	}

	var remaining []fakeEntry
	for _, e := range b.entries {
		if keyMarker == "" || e.after(keyMarker, versionMarker) {
			remaining = append(remaining, e)
		}
	}

	n := min(f.limit(in.MaxKeys), len(remaining))
	out := &s3.ListObjectVersionsOutput{IsTruncated: aws.Bool(n < len(remaining))}
	for _, e := range remaining[:n] {
		if e.marker {
			out.DeleteMarkers = append(out.DeleteMarkers, types.DeleteMarkerEntry{Key: aws.String(e.key), VersionId: aws.String(e.versionID)})
		} else {
			out.Versions = append(out.Versions, types.ObjectVersion{Key: aws.String(e.key), VersionId: aws.String(e.versionID)})
		}
	}
	if n < len(remaining) {
		last := remaining[n-1]
		out.NextKeyMarker = aws.String(last.key)
		out.NextVersionIdMarker = aws.String(last.versionID)
	}
	return out, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	b, err := f.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}

	after := aws.ToString(in.ContinuationToken)
	latest := make(map[string]fakeEntry)
	var keys []string
	for _, e := range b.entries {
		if after != "" && e.key <= after {
			continue
		}
		if _, seen := latest[e.key]; !seen {
			keys = append(keys, e.key)
		}
		latest[e.key] = e
	}

	var visible []string
	for _, key := range keys {
		if !latest[key].marker {
			visible = append(visible, key)
		}
	}

	n := min(f.limit(in.MaxKeys), len(visible))
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(n < len(visible)), KeyCount: aws.Int32(int32(n))}
	for _, key := range visible[:n] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if n < len(visible) {
		out.NextContinuationToken = aws.String(visible[n-1])
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleteObjectCalls = append(f.deleteObjectCalls, in)

	b, err := f.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}

	out := &s3.DeleteObjectsOutput{}
	for _, id := range in.Delete.Objects {
		key, versionID := aws.ToString(id.Key), aws.ToString(id.VersionId)

		if code, failing := b.failKeys[key]; failing {
			out.Errors = append(out.Errors, types.Error{
				Key:       id.Key,
				VersionId: id.VersionId,
				Code:      aws.String(code),
				Message:   aws.String("refused by test"),
			})
			continue
		}

		if versionID == "" && b.versioning == types.BucketVersioningStatusEnabled {
			b.entries = append(b.entries, fakeEntry{key: key, versionID: f.nextVersion(), marker: true})
			b.sort()
			continue
		}

		b.remove(key, versionID)
		if !aws.ToBool(in.Delete.Quiet) {
			out.Deleted = append(out.Deleted, types.DeletedObject{Key: id.Key, VersionId: id.VersionId})
		}
	}
	return out, nil
}

func (f *fakeS3) DeleteBucket(_ context.Context, in *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	name := aws.ToString(in.Bucket)
	f.deleteBucketCalls = append(f.deleteBucketCalls, name)

	b, err := f.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}

	if b.failDelete != nil {
		return nil, b.failDelete
	}

	if len(b.entries) > 0 {
		return nil, &smithy.GenericAPIError{Code: "BucketNotEmpty", Message: "The bucket you tried to delete is not empty"}
	}

	delete(f.buckets, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return &s3.DeleteBucketOutput{}, nil
}

// versionCount lists every remaining version and marker of bucket.
func (f *fakeS3) versionCount(bucket string) (versions, markers int) {
	saved := f.pageSize
	f.pageSize = 1000
	defer func() { f.pageSize = saved }()

	out, _ := f.ListObjectVersions(context.Background(), &s3.ListObjectVersionsInput{Bucket: aws.String(bucket), MaxKeys: aws.Int32(1000)})
	return len(out.Versions), len(out.DeleteMarkers)
}

// objectCount lists the current objects of bucket.
func (f *fakeS3) objectCount(bucket string) int {
	saved := f.pageSize
	f.pageSize = 1000
	defer func() { f.pageSize = saved }()

	out, _ := f.ListObjectsV2(context.Background(), &s3.ListObjectsV2Input{Bucket: aws.String(bucket), MaxKeys: aws.Int32(1000)})
	return len(out.Contents)
}
