package s3api

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Sentinel errors for the service failures the reaper tells apart.
var (
	ErrBucketNotEmpty = errors.New("s3: bucket not empty")
	ErrAccessDenied   = errors.New("s3: access denied")
	ErrNoSuchBucket   = errors.New("s3: no such bucket")
)

var codes = map[string]error{
	"BucketNotEmpty": ErrBucketNotEmpty,
	"AccessDenied":   ErrAccessDenied,
	"NoSuchBucket":   ErrNoSuchBucket,
}

// Code returns the service error code carried by err, or "" if there is none.
func Code(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

/*
Classify wraps err with the matching sentinel so callers can use errors.Is.
The original error stays in the chain and in the message. Errors with an
unknown or missing code are returned unchanged.
*/
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if sentinel, ok := codes[Code(err)]; ok {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	return err
}
