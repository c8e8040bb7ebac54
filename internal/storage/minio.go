package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const attachmentPrefix = "attachments/"

// MinIOClient is the blob store for uploaded attachments. Objects are keyed
// by attachment file id.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

// NewMinIOClient creates a MinIO client and ensures the bucket exists.
func NewMinIOClient(ctx context.Context, endpoint, accessKey, secretKey, bucket string, secure bool) (*MinIOClient, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinIOClient{client: client, bucket: bucket}, nil
}

// ObjectKey returns the object key of an attachment file.
func ObjectKey(fileID string) string {
	return attachmentPrefix + fileID
}

// Upload stores the file bytes under the attachment's file id.
func (m *MinIOClient) Upload(ctx context.Context, fileID string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, ObjectKey(fileID), reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", fileID, err)
	}
	return nil
}

// Delete removes an attachment file. A missing object is not an error.
func (m *MinIOClient) Delete(ctx context.Context, fileID string) error {
	err := m.client.RemoveObject(ctx, m.bucket, ObjectKey(fileID), minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return err
}
