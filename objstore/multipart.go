package objstore

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vitaliisemenov/corefx/ferr"
)

// MultipartUpload tracks an in-progress multipart upload so the caller can
// presign each part and complete/abort it explicitly.
type MultipartUpload struct {
	Bucket   string
	Key      string
	UploadID string
}

// InitiateMultipartUpload starts a multipart upload for key in bucket.
func (c *Client) InitiateMultipartUpload(ctx context.Context, bucket, key string) (*MultipartUpload, error) {
	out, err := c.s3.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return &MultipartUpload{Bucket: c.bucket(bucket), Key: key, UploadID: aws.ToString(out.UploadId)}, nil
}

// PresignUploadPart returns a presigned PUT URL for partNumber (1-based)
// of an in-progress multipart upload, valid for ttl.
func (c *Client) PresignUploadPart(ctx context.Context, u *MultipartUpload, partNumber int32, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(u.Bucket),
		Key:        aws.String(u.Key),
		UploadId:   aws.String(u.UploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapErr(err)
	}
	return req.URL, nil
}

// CompletedPart identifies one uploaded part by number and ETag, as reported
// by the client after it PUTs to a presigned part URL.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// CompleteMultipartUpload finalizes the upload from the given parts, which
// must be supplied in ascending PartNumber order.
func (c *Client) CompleteMultipartUpload(ctx context.Context, u *MultipartUpload, parts []CompletedPart) error {
	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{PartNumber: aws.Int32(p.PartNumber), ETag: aws.String(p.ETag)}
	}
	_, err := c.s3.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(u.Bucket),
		Key:      aws.String(u.Key),
		UploadId: aws.String(u.UploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	return wrapErr(err)
}

// AbortMultipartUpload cancels an in-progress multipart upload.
func (c *Client) AbortMultipartUpload(ctx context.Context, u *MultipartUpload) error {
	_, err := c.s3.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(u.Bucket),
		Key:      aws.String(u.Key),
		UploadId: aws.String(u.UploadID),
	})
	return wrapErr(err)
}

// GetBucketLifecycle fetches bucket's lifecycle configuration rules.
func (c *Client) GetBucketLifecycle(ctx context.Context, bucket string) ([]types.LifecycleRule, error) {
	out, err := c.s3.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(c.bucket(bucket)),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return out.Rules, nil
}

// PutBucketLifecycle replaces bucket's lifecycle configuration with rules.
func (c *Client) PutBucketLifecycle(ctx context.Context, bucket string, rules []types.LifecycleRule) error {
	if len(rules) == 0 {
		return ferr.BadRequest("lifecycle configuration requires at least one rule")
	}
	_, err := c.s3.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(c.bucket(bucket)),
		LifecycleConfiguration: &types.BucketLifecycleConfiguration{
			Rules: rules,
		},
	})
	return wrapErr(err)
}

// DeleteBucketLifecycle removes bucket's lifecycle configuration entirely.
func (c *Client) DeleteBucketLifecycle(ctx context.Context, bucket string) error {
	_, err := c.s3.DeleteBucketLifecycle(ctx, &s3.DeleteBucketLifecycleInput{
		Bucket: aws.String(c.bucket(bucket)),
	})
	return wrapErr(err)
}
