package aws

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/avelis/cloudlab/internal/util/retry"
	"github.com/avelis/cloudlab/internal/workflow"
)

// LookupBucket checks whether the bucket exists and is reachable. A bucket
// living in a different region than the spec asks for is a conflict:
// bucket names are global, so it cannot be recreated elsewhere.
func (c *Client) LookupBucket(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(spec.Key)})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to head bucket %s: %w", spec.Key, err)
	}

	wantRegion := spec.Attr(AttrRegion, c.region)
	loc, err := c.s3.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(spec.Key)})
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket location for %s: %w", spec.Key, err)
	}
	if got := bucketRegion(loc.LocationConstraint); got != wantRegion {
		return nil, &workflow.ConflictError{
			Key:    spec.Key,
			Reason: fmt.Sprintf("bucket exists in region %s, spec wants %s", got, wantRegion),
		}
	}

	return newHandle(spec.Key, spec, workflow.StatusReady), nil
}

// CreateBucket creates the bucket, tags it, and enables versioning when
// requested. BucketAlreadyOwnedByYou is treated as success; a name claimed
// by another account is a conflict.
func (c *Client) CreateBucket(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	region := spec.Attr(AttrRegion, c.region)

	input := &s3.CreateBucketInput{Bucket: aws.String(spec.Key)}
	// us-east-1 is the default and must not be sent as a constraint.
	if region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}

	if _, err := c.s3.CreateBucket(ctx, input); err != nil {
		switch {
		case isBucketOwned(err):
			// Already ours; fall through to tagging.
		case isBucketTaken(err):
			return nil, &workflow.ConflictError{
				Key:    spec.Key,
				Reason: "bucket name is taken by another account",
			}
		default:
			return nil, fmt.Errorf("failed to create bucket %s: %w", spec.Key, err)
		}
	}

	_, err := c.s3.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
		Bucket: aws.String(spec.Key),
		Tagging: &s3types.Tagging{TagSet: []s3types.Tag{
			{Key: aws.String("Name"), Value: aws.String(spec.Key)},
			{Key: aws.String(managedByTagKey), Value: aws.String(managedByTagValue)},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to tag bucket %s: %w", spec.Key, err)
	}

	if spec.Attr(AttrVersioning, "false") == "true" {
		_, err := c.s3.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
			Bucket: aws.String(spec.Key),
			VersioningConfiguration: &s3types.VersioningConfiguration{
				Status: s3types.BucketVersioningStatusEnabled,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to enable versioning on %s: %w", spec.Key, err)
		}
	}

	return newHandle(spec.Key, spec, workflow.StatusPending), nil
}

// BucketStatus reports readiness via HeadBucket. S3 propagation can lag a
// create, so NotFound shortly after creation maps to pending.
func (c *Client) BucketStatus(ctx context.Context, bucket string) (workflow.Status, error) {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		if IsNotFound(err) {
			return workflow.StatusPending, nil
		}
		return "", fmt.Errorf("failed to head bucket %s: %w", bucket, err)
	}
	return workflow.StatusReady, nil
}

// DeleteBucket empties the bucket (objects and versions) and deletes it.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	if err := c.emptyBucket(ctx, bucket); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	return retry.Do(ctx, func() error {
		_, err := c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			if isDependencyViolation(err) {
				return err // retryable, bucket still draining
			}
			return retry.Fatal(fmt.Errorf("failed to delete bucket %s: %w", bucket, err))
		}
		return nil
	},
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
}

func (c *Client) emptyBucket(ctx context.Context, bucket string) error {
	// Current objects first.
	for {
		out, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
		if err != nil {
			return fmt.Errorf("failed to list objects in %s: %w", bucket, err)
		}
		if len(out.Contents) == 0 {
			break
		}
		log.Printf("[aws] deleting %d objects from %s", len(out.Contents), bucket)
		for _, obj := range out.Contents {
			_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return fmt.Errorf("failed to delete object %s: %w", aws.ToString(obj.Key), err)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
	}

	// Then old versions and delete markers, if versioning was ever on.
	for {
		out, err := c.s3.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{Bucket: aws.String(bucket)})
		if err != nil {
			return fmt.Errorf("failed to list object versions in %s: %w", bucket, err)
		}
		if len(out.Versions) == 0 && len(out.DeleteMarkers) == 0 {
			break
		}
		for _, v := range out.Versions {
			if err := c.deleteVersion(ctx, bucket, v.Key, v.VersionId); err != nil {
				return err
			}
		}
		for _, m := range out.DeleteMarkers {
			if err := c.deleteVersion(ctx, bucket, m.Key, m.VersionId); err != nil {
				return err
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
	}
	return nil
}

func (c *Client) deleteVersion(ctx context.Context, bucket string, key, versionID *string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket:    aws.String(bucket),
		Key:       key,
		VersionId: versionID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete version %s of %s: %w", aws.ToString(versionID), aws.ToString(key), err)
	}
	return nil
}

// PutObject uploads body under key.
func (c *Client) PutObject(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// GetObject returns the object body. The caller must close it.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// DeleteObject removes one object. Missing is success.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// ListObjects returns the keys currently in the bucket.
func (c *Client) ListObjects(ctx context.Context, bucket string) ([]string, error) {
	out, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// bucketRegion maps GetBucketLocation's constraint to a region name; the
// empty constraint means us-east-1.
func bucketRegion(lc s3types.BucketLocationConstraint) string {
	if lc == "" {
		return "us-east-1"
	}
	return string(lc)
}
