// Package storage signs and uploads 3D model objects in the asset bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrNoBucket = errors.New("asset bucket not configured")

const PresignExpiry = time.Hour

type Assets struct {
	Bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

// NewAssets loads the default AWS credential chain for region.
func NewAssets(ctx context.Context, region, bucket string) (*Assets, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	log.Printf("[storage] S3 asset bucket %s (%s)", bucket, region)
	return &Assets{Bucket: bucket, client: client, presign: s3.NewPresignClient(client)}, nil
}

// PresignModel returns a time-limited GET URL for an object key.
func (a *Assets) PresignModel(ctx context.Context, key string) (string, error) {
	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return req.URL, nil
}

// UploadModel stores body under key and returns the key.
func (a *Assets) UploadModel(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload model: %w", err)
	}
	return key, nil
}
