package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/p-shah256/atsmatch/internal/config"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// ObjectStore reads uploaded resumes by key.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// getObjectAPI is the part of *s3.Client S3Store uses.
type getObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store works against AWS S3 and compatible stores (R2, MinIO) through a custom endpoint.
type S3Store struct {
	client  getObjectAPI
	bucket  string
	maxSize int64
}

// NewS3Store builds a client from cfg. Static credentials are used when both
// keys are set, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg config.StorageConfig, maxSize int64) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.Bucket, maxSize), nil
}

func newS3Store(client getObjectAPI, bucket string, maxSize int64) *S3Store {
	return &S3Store{client: client, bucket: bucket, maxSize: maxSize}
}

// Get downloads key. Objects larger than the store's size limit are rejected
// without reading them fully.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	if s.maxSize > 0 && out.ContentLength != nil && *out.ContentLength > s.maxSize {
		return nil, fmt.Errorf("object %s is %d bytes, limit is %d", key, *out.ContentLength, s.maxSize)
	}

	reader := io.Reader(out.Body)
	if s.maxSize > 0 {
		reader = io.LimitReader(out.Body, s.maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("object %s exceeds %d bytes", key, s.maxSize)
	}
	return data, nil
}
