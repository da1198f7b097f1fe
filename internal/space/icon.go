package space

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const maxIconSize = 1 << 20 // 1 MiB

// IconStore keeps space icons in object storage
type IconStore struct {
	client     *minio.Client
	bucketName string
}

func NewIconStore(client *minio.Client, bucketName string) *IconStore {
	return &IconStore{client: client, bucketName: bucketName}
}

// Upload stores the icon and returns its object key
func (m *IconStore) Upload(ctx context.Context, spaceID uuid.UUID, data io.Reader, size int64, contentType string) (string, error) {
	if size > maxIconSize {
		return "", fmt.Errorf("icon exceeds %d bytes", maxIconSize)
	}

	objectName := fmt.Sprintf("icons/%s", spaceID)

	_, err := m.client.PutObject(
		ctx,
		m.bucketName,
		objectName,
		data,
		size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload icon: %w", err)
	}

	return objectName, nil
}

// Fetch streams the icon object back along with its content type
func (m *IconStore) Fetch(ctx context.Context, objectName string) (io.ReadCloser, string, error) {
	object, err := m.client.GetObject(ctx, m.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get icon: %w", err)
	}

	stat, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, "", fmt.Errorf("failed to stat icon: %w", err)
	}

	return object, stat.ContentType, nil
}
