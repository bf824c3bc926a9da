// Package object moves artifact bytes by canonical (bucket, path) pointer.
// The S3 implementation speaks to any S3-compatible endpoint (AWS, MinIO,
// Supabase storage gateways); the memory implementation backs unit tests.
package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"quorum/internal/registry/models"
	dErrors "quorum/pkg/domain-errors"
	"quorum/pkg/platform/sentinel"
)

// ErrNotFound marks a download of a pointer with no stored object.
var ErrNotFound = fmt.Errorf("object: %w", sentinel.ErrNotFound)

// callTimeout bounds every storage round trip so a hung endpoint reads as a
// normal call failure, not a stuck request.
const callTimeout = 30 * time.Second

// S3Config holds connection settings for the S3 store.
type S3Config struct {
	Region   string
	Endpoint string // Optional custom endpoint (MinIO, LocalStack, storage gateways).
}

// S3Store implements the object store on aws-sdk-go-v2. Buckets come from the
// pointer, not the store, since artifacts span several buckets (minute_book,
// envelopes, exports).
type S3Store struct {
	client *s3.Client
}

// NewS3Store creates the store from ambient AWS configuration.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO-style endpoints.
		}
	})

	return &S3Store{client: client}, nil
}

// Download fetches the object bytes at ptr.
func (s *S3Store) Download(ctx context.Context, ptr models.StoragePointer) ([]byte, error) {
	if ptr.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "storage pointer is required")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ptr.Bucket),
		Key:    aws.String(ptr.Path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 get %s: %w", ptr.Key(), err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", ptr.Key(), err)
	}
	return data, nil
}

// Upload writes data at ptr. Without overwrite, an existing object is left
// untouched. S3 PUT replaces atomically, so the overwrite path is safe for
// the certifier's re-upload of identical bytes.
func (s *S3Store) Upload(ctx context.Context, ptr models.StoragePointer, data []byte, overwrite bool) error {
	if ptr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "storage pointer is required")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if !overwrite {
		exists, err := s.Exists(ctx, ptr)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ptr.Bucket),
		Key:         aws.String(ptr.Path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", ptr.Key(), err)
	}
	return nil
}

// Exists reports whether an object is stored at ptr.
func (s *S3Store) Exists(ctx context.Context, ptr models.StoragePointer) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ptr.Bucket),
		Key:    aws.String(ptr.Path),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head %s: %w", ptr.Key(), err)
	}
	return true, nil
}
