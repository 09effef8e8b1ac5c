package media

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ccms/internal/config"
	"ccms/internal/domain"
	"ccms/internal/ports"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive mirrors downloaded images into a bucket.
type S3Archive struct {
	client putObjectAPI
	bucket string
	prefix string
}

var _ ports.MediaArchive = (*S3Archive)(nil)

// NewS3Archive loads AWS credentials from the default chain. A custom endpoint
// (MinIO, LocalStack) switches to path-style addressing.
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Archive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Archive uploads the asset bytes and returns the object key.
func (a *S3Archive) Archive(ctx context.Context, asset domain.MediaAsset) (string, error) {
	if len(asset.Data) == 0 {
		return "", fmt.Errorf("asset %s has no data", asset.Filename)
	}
	key := path.Join(a.prefix, asset.Filename)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(asset.Data),
		ContentType:   aws.String(asset.ContentType),
		ContentLength: aws.Int64(int64(len(asset.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}
