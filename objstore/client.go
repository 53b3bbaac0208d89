// Package objstore wraps an S3-compatible object store: bucket/object CRUD,
// multipart upload with presigned part URLs, presigned GET/PUT/DELETE, and
// bucket lifecycle management (spec §4.6). Only the S3-compatible backend is
// implemented; other backends are out of scope (spec §1).
package objstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Client wraps an S3-compatible bucket operations surface.
type Client struct {
	s3            *s3.Client
	presign       *s3.PresignClient
	uploader      *manager.Uploader
	defaultBucket string
}

// New builds a Client from cfg, targeting cfg.Endpoint as a custom
// S3-compatible resolver when set.
func New(ctx context.Context, cfg fwconfig.OSModuleConfig) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, ferr.Internal("loading object store config: %v", err)
	}

	cli := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Client{
		s3:            cli,
		presign:       s3.NewPresignClient(cli),
		uploader:      manager.NewUploader(cli),
		defaultBucket: cfg.Bucket,
	}, nil
}

func (c *Client) bucket(bucket string) string {
	if bucket != "" {
		return bucket
	}
	return c.defaultBucket
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return ferr.NotFound("%s", apiErr.ErrorMessage())
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return ferr.Conflict("%s", apiErr.ErrorMessage())
		}
	}
	return ferr.Wrap(err)
}

// CreateBucket creates bucket.
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	_, err := c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket(bucket))})
	return wrapErr(err)
}

// DeleteBucket deletes bucket.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(c.bucket(bucket))})
	return wrapErr(err)
}

// PutObject creates/overwrites key in bucket with the contents of body.
func (c *Client) PutObject(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
		Body:   body,
	})
	return wrapErr(err)
}

// GetObject fetches key from bucket; the caller must close the returned
// reader.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return out.Body, nil
}

// ExistObject reports whether key exists in bucket via HEAD.
func (c *Client) ExistObject(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	wrapped := wrapErr(err)
	if fe, ok := wrapped.(*ferr.Error); ok && fe.Code == "404" {
		return false, nil
	}
	return false, wrapped
}

// DeleteObject removes key from bucket.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	})
	return wrapErr(err)
}

// CopyObject copies srcBucket/srcKey to dstBucket/dstKey.
func (c *Client) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := c.s3.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(c.bucket(dstBucket)),
		Key:        aws.String(dstKey),
		CopySource: aws.String(strings.TrimPrefix(c.bucket(srcBucket)+"/"+srcKey, "/")),
	})
	return wrapErr(err)
}

// PresignGet returns a presigned GET URL for key valid for ttl.
func (c *Client) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapErr(err)
	}
	return req.URL, nil
}

// PresignPut returns a presigned PUT URL for key valid for ttl.
func (c *Client) PresignPut(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapErr(err)
	}
	return req.URL, nil
}

// PresignDelete returns a presigned DELETE URL for key valid for ttl.
func (c *Client) PresignDelete(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignDeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket(bucket)),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapErr(err)
	}
	return req.URL, nil
}
