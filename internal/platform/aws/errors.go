package aws

import (
	"errors"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// apiErrorCode extracts the service error code, or "" for non-API errors.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func isErrorCode(err error, codes ...string) bool {
	code := apiErrorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the referenced resource does not
// exist. Deletes treat this as success (already gone).
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var nsb *s3types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	return isErrorCode(err,
		"NotFound",
		"NoSuchBucket",
		"404",
		"InvalidVpcID.NotFound",
		"InvalidSubnetID.NotFound",
		"InvalidInternetGatewayID.NotFound",
		"InvalidRouteTableID.NotFound",
		"InvalidGroup.NotFound",
		"InvalidKeyPair.NotFound",
		"InvalidInstanceID.NotFound",
	)
}

// isBucketOwned reports whether err means the bucket already exists in
// this account. Idempotent creates treat this as success.
func isBucketOwned(err error) bool {
	if err == nil {
		return false
	}
	var baoby *s3types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}
	return isErrorCode(err, "BucketAlreadyOwnedByYou")
}

// isBucketTaken reports whether the bucket name is claimed by another
// account. S3 bucket names are global, so this is a configuration
// conflict, not reuse.
func isBucketTaken(err error) bool {
	if err == nil {
		return false
	}
	var bae *s3types.BucketAlreadyExists
	if errors.As(err, &bae) {
		return true
	}
	return isErrorCode(err, "BucketAlreadyExists")
}

// isDuplicate reports whether err means an EC2 resource with the same
// name already exists.
func isDuplicate(err error) bool {
	return isErrorCode(err,
		"InvalidGroup.Duplicate",
		"InvalidKeyPair.Duplicate",
	)
}

// isDependencyViolation reports whether a delete failed because dependents
// still reference the resource. Retryable while dependents drain.
func isDependencyViolation(err error) bool {
	return isErrorCode(err,
		"DependencyViolation",
		"InvalidGroup.InUse",
		"BucketNotEmpty",
	)
}
