package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// S3Store implements ObjectStore on AWS S3 (or any S3-compatible endpoint
// configured on the client).
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	region    string
	publicURL string
	logger    *logrus.Logger
}

// NewS3Store creates an S3Store. publicBaseURL may be empty, in which case
// rendition URLs use the virtual-hosted bucket address.
func NewS3Store(client *s3.Client, region, publicBaseURL string, logger *logrus.Logger) *S3Store {
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		region:    region,
		publicURL: publicBaseURL,
		logger:    logger,
	}
}

// SignedUpload issues a presigned POST policy. S3 rejects a form upload
// whose Content-Type field differs from the one in the policy.
func (s *S3Store) SignedUpload(ctx context.Context, bucket, path, contentType string, ttl time.Duration) (*UploadCapability, error) {
	req, err := s.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = ttl
		o.Conditions = []interface{}{
			[]interface{}{"eq", "$Content-Type", contentType},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for s3://%s/%s: %w", bucket, path, err)
	}

	fields := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		fields[k] = v
	}
	fields["Content-Type"] = contentType
	return &UploadCapability{
		URL:    req.URL,
		Method: http.MethodPost,
		Fields: fields,
	}, nil
}

func (s *S3Store) Download(ctx context.Context, bucket, path, dst string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to download s3://%s/%s: %w", bucket, path, err)
	}
	defer out.Body.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	n, err := io.Copy(f, out.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write s3://%s/%s to %s: %w", bucket, path, dst, err)
	}

	s.logger.WithFields(logrus.Fields{"bucket": bucket, "path": path, "bytes": n}).Debug("Downloaded object")
	return nil
}

func (s *S3Store) Upload(ctx context.Context, bucket, path, src, contentType string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(path),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3://%s/%s: %w", bucket, path, err)
	}

	s.logger.WithFields(logrus.Fields{"bucket": bucket, "path": path}).Info("Uploaded object")
	return PublicURL(s.publicURL, s.region, bucket, path), nil
}
