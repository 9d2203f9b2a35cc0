// Package storage wraps the object store holding raw uploads and processed
// renditions.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ObjectStore is the object store contract used by the pipeline.
type ObjectStore interface {
	// SignedUpload mints a capability allowing one write of contentType to
	// bucket/path until ttl elapses. The content type is bound into the
	// signature, and the capability grants no read or delete rights.
	SignedUpload(ctx context.Context, bucket, path, contentType string, ttl time.Duration) (*UploadCapability, error)
	// Download copies bucket/path into the local file dst.
	Download(ctx context.Context, bucket, path, dst string) error
	// Upload stores the local file src at bucket/path and returns its public URL.
	Upload(ctx context.Context, bucket, path, src, contentType string) (string, error)
}

// UploadCapability is a signed write request. For PUT the client sends
// Headers with the raw body. For POST the client sends a multipart form
// holding Fields followed by a "file" part.
type UploadCapability struct {
	URL     string
	Method  string
	Headers map[string]string
	Fields  map[string]string
}

// PublicURL joins a public base URL, bucket and object path. When base is
// empty the S3 virtual-hosted style address is used.
func PublicURL(base, region, bucket, path string) string {
	escaped := escapePath(path)
	if base == "" {
		if region == "" {
			region = "us-east-1"
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, escaped)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, escaped)
}

func escapePath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
