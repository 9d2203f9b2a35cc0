package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
)

// MinioStore implements ObjectStore on a MinIO server.
type MinioStore struct {
	client    *minio.Client
	publicURL string
	logger    *logrus.Logger
}

// NewMinioStore creates a MinioStore. Rendition URLs are built from
// publicBaseURL, falling back to the client's endpoint.
func NewMinioStore(client *minio.Client, publicBaseURL string, logger *logrus.Logger) *MinioStore {
	if publicBaseURL == "" {
		publicBaseURL = client.EndpointURL().String()
	}
	return &MinioStore{client: client, publicURL: publicBaseURL, logger: logger}
}

// SignedUpload presigns a PUT with Content-Type among the signed headers.
func (s *MinioStore) SignedUpload(ctx context.Context, bucket, path, contentType string, ttl time.Duration) (*UploadCapability, error) {
	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	u, err := s.client.PresignHeader(ctx, http.MethodPut, bucket, path, ttl, nil, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s/%s: %w", bucket, path, err)
	}
	return &UploadCapability{
		URL:     u.String(),
		Method:  http.MethodPut,
		Headers: map[string]string{"Content-Type": contentType},
	}, nil
}

func (s *MinioStore) Download(ctx context.Context, bucket, path, dst string) error {
	if err := s.client.FGetObject(ctx, bucket, path, dst, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, bucket, path, src, contentType string) (string, error) {
	info, err := s.client.FPutObject(ctx, bucket, path, src, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}
	s.logger.WithFields(logrus.Fields{"bucket": bucket, "path": path, "bytes": info.Size}).Info("Uploaded object")
	return PublicURL(s.publicURL, "", bucket, path), nil
}
