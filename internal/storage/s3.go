package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an S3 or MinIO bucket.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS, e.g. http://127.0.0.1:9000 for MinIO
	AccessKey string
	SecretKey string
}

// s3API is the subset of the S3 client used here; tests replace it.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps images in an S3-compatible bucket.
type S3Store struct {
	client s3API
	bucket string
}

var _ ImageStore = (*S3Store)(nil)

// NewS3Store builds an S3 client from static credentials.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: opts.Bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) error {
	if !IsSafeFilename(filename) {
		return fmt.Errorf("invalid filename %q", filename)
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(filename),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, filename string) (io.ReadCloser, *ObjectInfo, error) {
	if !IsSafeFilename(filename) {
		return nil, nil, ErrImageNotFound
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil, ErrImageNotFound
		}
		return nil, nil, fmt.Errorf("get object: %w", err)
	}

	info := &ObjectInfo{ContentType: aws.ToString(out.ContentType), Size: aws.ToInt64(out.ContentLength)}
	if info.ContentType == "" {
		info.ContentType = ContentTypeFor(filename)
	}
	return out.Body, info, nil
}

func (s *S3Store) Delete(ctx context.Context, filename string) error {
	if !IsSafeFilename(filename) {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
