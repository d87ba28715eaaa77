package manifest

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Fetcher fetches manifest objects from S3.
type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher creates a fetcher from the shared AWS config.
func NewS3Fetcher(awsCfg aws.Config) *S3Fetcher {
	return &S3Fetcher{client: s3.NewFromConfig(awsCfg)}
}

// Fetch streams one object.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
