// Package objstore stores uploaded files in an S3-compatible bucket.
package objstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/portalhq/portal/pkg/idx"
)

// Uploader is what the file handler depends on, so tests can swap in a fake
// instead of a live bucket.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
}

type Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UsePathStyle bool
}

// S3Store uploads objects through the AWS SDK. Endpoint and path-style
// addressing are configurable so MinIO works in development.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("objstore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Store{client: client, bucket: opts.Bucket}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("objstore: put %s: %w", key, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename strips path components and replaces anything outside
// [a-zA-Z0-9._-] so client-supplied names cannot smuggle separators or
// control characters into object keys.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return name
}

// ObjectKey builds a unique key for an uploaded file, keeping only the
// original extension: uploads/<ulid><ext>.
func ObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(SanitizeFilename(filename)))
	return "uploads/" + idx.New().String() + ext
}
