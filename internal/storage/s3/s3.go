package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewClient creates a MinIO client and ensures the bucket exists
func NewClient(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := ensureBucket(ctx, client, bucketName); err != nil {
		return nil, err
	}

	return client, nil
}

// ensureBucket creates the bucket if it doesn't exist
func ensureBucket(ctx context.Context, client *minio.Client, bucketName string) error {
	exist, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check whether bucket exists: %w", err)
	}

	if !exist {
		err = client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}
