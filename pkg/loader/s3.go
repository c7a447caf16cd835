package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// GetObjectAPI is the subset of *s3.Client used by S3Source.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source loads modules from <Prefix><id><Ext> objects in an S3 bucket.
//
// Example usage:
//
//	src, err := loader.NewS3Source(ctx, loader.S3Options{
//	    Bucket: "site-modules",
//	    Prefix: "modules/",
//	    Region: "us-east-1",
//	})
type S3Source struct {
	Client   GetObjectAPI
	Bucket   string
	Prefix   string
	Ext      string
	MaxBytes int64
}

// S3Options configures NewS3Source.
type S3Options struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the S3 endpoint (e.g. MinIO). Enables path-style addressing.
	Endpoint string

	MaxBytes int64
}

// NewS3Source builds an S3Source using the default AWS credential chain.
func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loader: aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{
		Client:   client,
		Bucket:   opts.Bucket,
		Prefix:   opts.Prefix,
		MaxBytes: opts.MaxBytes,
	}, nil
}

// Key returns the object key for id.
func (s *S3Source) Key(id string) string {
	ext := s.Ext
	if ext == "" {
		ext = ".html"
	}
	return s.Prefix + id + ext
}

// Fetch downloads and parses the module object.
func (s *S3Source) Fetch(ctx context.Context, id string) (Content, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, id)
		}
		return nil, fmt.Errorf("s3 get %s: %w", s.Key(id), err)
	}
	defer out.Body.Close()

	body, err := readLimited(out.Body, s.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", s.Key(id), err)
	}
	return ParseTemplate(id, body)
}
