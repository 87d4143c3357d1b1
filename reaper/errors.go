package reaper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

/*
ErrorType names the step of a run that failed. Every type here halts the
run; failed bucket deletions are reported in the Summary instead.
*/
type ErrorType string

const (
	/*
		ErrorTypeClient represents a failure to build a region-bound client
	*/
	ErrorTypeClient ErrorType = "client"
	/*
		ErrorTypeListBuckets represents a failure to list the account's buckets
	*/
	ErrorTypeListBuckets ErrorType = "list-buckets"
	/*
		ErrorTypeRegion represents a failure to resolve a bucket's location
	*/
	ErrorTypeRegion ErrorType = "region"
	/*
		ErrorTypeVersioning represents a failure to read the versioning status
	*/
	ErrorTypeVersioning ErrorType = "versioning"
	/*
		ErrorTypeListObjects represents a failure to list objects or versions
	*/
	ErrorTypeListObjects ErrorType = "list-objects"
	/*
		ErrorTypeDeleteObjects represents a failed or partially failed batch delete
	*/
	ErrorTypeDeleteObjects ErrorType = "delete-objects"
)

/*
Error is returned by every reaper operation that can halt a run.
*/
type Error struct {
	Type   ErrorType
	Bucket string
	Region string
	Err    error
}

/*
Error implements the error interface
*/
func (e *Error) Error() string {
	if e.Bucket != "" {
		return fmt.Sprintf("%s error on bucket %s: %v", e.Type, e.Bucket, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Type, e.Err)
}

/*
Unwrap returns the underlying error
*/
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(errType ErrorType, bucket string, err error) *Error {
	return &Error{
		Type:   errType,
		Bucket: bucket,
		Err:    err,
	}
}

// WithRegion adds region information to the error
func (e *Error) WithRegion(region string) *Error {
	e.Region = region
	return e
}

// IsType reports whether any error in err's chain is a reaper Error of errType.
func IsType(err error, errType ErrorType) bool {
	var reaperErr *Error
	if !errors.As(err, &reaperErr) {
		return false
	}
	return reaperErr.Type == errType
}

/*
BatchError carries the per-key failures S3 returns inside an otherwise
successful DeleteObjects response.
*/
type BatchError struct {
	Failed []types.Error
}

func (e *BatchError) Error() string {
	if len(e.Failed) == 0 {
		return "batch delete reported no failures"
	}

	first := e.Failed[0]
	var b strings.Builder
	fmt.Fprintf(&b, "%d object(s) not deleted; first: %s", len(e.Failed), aws.ToString(first.Key))
	if v := aws.ToString(first.VersionId); v != "" {
		fmt.Fprintf(&b, " version %s", v)
	}
	fmt.Fprintf(&b, " (%s: %s)", aws.ToString(first.Code), aws.ToString(first.Message))

	return b.String()
}
