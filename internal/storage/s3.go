// Package storage uploads artifacts to the deploy bucket in object storage.
package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures the object-storage client.
type Options struct {
	Bucket string
	Region string
	// Profile names the shared-credentials profile used for uploads.
	Profile string
	// CredentialsFile optionally pins the shared-credentials file path
	// instead of the SDK default.
	CredentialsFile string
}

// Client wraps the S3 SDK client for the artifact bucket.
type Client struct {
	bucket  string
	s3      *s3.Client
	presign *s3.PresignClient
}

// New builds a Client from the named credential profile.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.CredentialsFile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedCredentialsFiles([]string{opts.CredentialsFile}))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	cli := s3.NewFromConfig(awsCfg)
	return &Client{
		bucket:  opts.Bucket,
		s3:      cli,
		presign: s3.NewPresignClient(cli),
	}, nil
}

// Upload puts the file at path under key, overwriting any existing object.
func (c *Client) Upload(ctx context.Context, key, path string) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// PresignGet returns a time-limited GET URL for an object, used to hand the
// artifact to container builds without shipping credentials.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}
