// Package storage lands recording media in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	sharedConfig "github.com/annix-labs/fieldflow/internal/shared/config"
)

// RecordingStore is the blob interface the recording pipeline writes to.
type RecordingStore interface {
	// Upload stores data under key and returns the stored object path.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Bucket names the bucket objects land in.
	Bucket() string
}

// S3Store uploads recordings through the s3 transfer manager.
type S3Store struct {
	uploader *manager.Uploader
	bucket   string
}

func NewS3Store(ctx context.Context, cfg *sharedConfig.StorageConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})

	return &S3Store{uploader: uploader, bucket: cfg.Bucket}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload recording to S3: %w", err)
	}
	return key, nil
}

func (s *S3Store) Bucket() string {
	return s.bucket
}

// RecordingKey builds the object key for a downloaded recording.
func RecordingKey(p platform.Platform, userID uint, downloadedAtUnix int64, platformMeetingID, extension string) string {
	if extension == "" {
		extension = "mp4"
	}
	return fmt.Sprintf("platform-recordings/%s/%d/%d-%s.%s", p, userID, downloadedAtUnix, platformMeetingID, extension)
}

// ContentTypeForExtension maps a recording file extension to its MIME type.
func ContentTypeForExtension(extension string) string {
	switch extension {
	case "m4a":
		return "audio/mp4"
	case "mp3":
		return "audio/mpeg"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
