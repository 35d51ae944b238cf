package storage

import (
	"context"
	"fmt"
	"time"

	"songvault/config"
	"songvault/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// grantTTL bounds how long an issued upload URL stays valid.
const grantTTL = 15 * time.Minute

// MinioStore implements CoverStore against a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore connects to the MinIO endpoint and ensures the bucket exists.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioStore{
		client:     client,
		bucket:     cfg.MinioBucket,
		publicBase: cfg.MinioPublicBaseURL,
	}, nil
}

// IssueUploadGrant returns a presigned PUT URL for the object.
func (s *MinioStore) IssueUploadGrant(ctx context.Context, objectName string) (string, error) {
	uploadURL, err := s.client.PresignedPutObject(ctx, s.bucket, objectName, grantTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", objectName, err)
	}
	return uploadURL.String(), nil
}

// PublicURL returns the stable read URL for an object in the bucket.
func (s *MinioStore) PublicURL(objectName string) string {
	return s.publicBase + "/" + s.bucket + "/" + objectName
}

// DeleteCover removes the object from the bucket. MinIO treats removal of an
// absent object as a no-op, which matches the gateway contract.
func (s *MinioStore) DeleteCover(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectName, err)
	}
	return nil
}
