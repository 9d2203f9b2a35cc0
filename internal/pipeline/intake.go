package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"streamshare/internal/auth"
	"streamshare/internal/db"
	"streamshare/internal/metrics"
	"streamshare/internal/storage"
	"streamshare/models"
)

// UploadRequest asks for a capability to upload one video.
type UploadRequest struct {
	FileName    string          `json:"fileName" validate:"required"`
	ContentType string          `json:"contentType" validate:"required"`
	Metadata    *UploadMetadata `json:"metadata,omitempty"`
}

// UploadMetadata is the optional caller-supplied description of the upload.
type UploadMetadata struct {
	Title            string   `json:"title" validate:"max=200"`
	Description      string   `json:"description" validate:"max=5000"`
	Visibility       string   `json:"visibility" validate:"omitempty,oneof=public unlisted private"`
	Tags             []string `json:"tags" validate:"max=30,dive,max=50"`
	OriginalFileName string   `json:"originalFileName"`
	FileSize         int64    `json:"fileSize" validate:"gte=0"`
}

// UploadTicket is returned to the caller, who sends the file to UploadURL
// before ExpiresAt. A PUT carries Headers with the raw body. A POST is a
// multipart form holding Fields followed by the file.
type UploadTicket struct {
	UploadURL  string            `json:"uploadUrl"`
	ObjectPath string            `json:"filePath"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	ExpiresAt  time.Time         `json:"expiresAt"`
}

var validate = validator.New()

// Intake issues write capabilities for raw uploads.
type Intake struct {
	objects storage.ObjectStore
	store   db.Store
	bucket  string
	ttl     time.Duration
	logger  *logrus.Logger

	now    func() time.Time
	suffix func() string
}

// NewIntake creates an Intake writing to bucket with capabilities valid for ttl.
func NewIntake(objects storage.ObjectStore, store db.Store, bucket string, ttl time.Duration, logger *logrus.Logger) *Intake {
	return &Intake{
		objects: objects,
		store:   store,
		bucket:  bucket,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		suffix:  func() string { return uuid.NewString()[:8] },
	}
}

// RequestUpload validates req, mints a write capability for a fresh object
// path under the caller's prefix and stages any metadata for the finalize
// listener.
func (i *Intake) RequestUpload(ctx context.Context, caller *auth.Identity, req UploadRequest) (*UploadTicket, error) {
	if caller == nil || caller.UID == "" {
		return nil, errUnauthenticated("User must be authenticated")
	}

	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if err := validate.Struct(req); err != nil {
		return nil, errInvalidArgument("invalid upload request: %v", err)
	}

	base := baseName(req.FileName)
	if base == "" {
		return nil, errInvalidArgument("fileName %q has no usable name", req.FileName)
	}

	now := i.now()
	objectPath := fmt.Sprintf("%s/%d-%s-%s", caller.UID, now.UnixMilli(), i.suffix(), base)

	capability, err := i.objects.SignedUpload(ctx, i.bucket, objectPath, req.ContentType, i.ttl)
	if err != nil {
		i.logger.WithError(err).WithField("object_path", objectPath).Error("Error generating signed URL")
		return nil, errInternal("Failed to generate upload URL: %v", err)
	}
	metrics.UploadsRequested.Inc()

	if req.Metadata != nil {
		i.stageMetadata(ctx, caller, objectPath, req, now)
	}

	i.logger.WithFields(logrus.Fields{
		"uid":         caller.UID,
		"object_path": objectPath,
	}).Info("Issued upload URL")

	return &UploadTicket{
		UploadURL:  capability.URL,
		ObjectPath: objectPath,
		Method:     capability.Method,
		Headers:    capability.Headers,
		Fields:     capability.Fields,
		ExpiresAt:  now.Add(i.ttl),
	}, nil
}

// stageMetadata is best-effort: the capability has already been minted and
// is returned even if staging fails.
func (i *Intake) stageMetadata(ctx context.Context, caller *auth.Identity, objectPath string, req UploadRequest, now time.Time) {
	m := req.Metadata
	userName := caller.DisplayName
	if userName == "" {
		userName = caller.Email
	}
	original := m.OriginalFileName
	if original == "" {
		original = req.FileName
	}
	staged := models.UploadMetadata{
		Title:            strings.TrimSpace(m.Title),
		Description:      m.Description,
		Visibility:       m.Visibility,
		Tags:             m.Tags,
		OriginalFileName: original,
		FileSize:         m.FileSize,
		UserID:           caller.UID,
		UserEmail:        caller.Email,
		UserName:         userName,
		UserAvatar:       caller.PhotoURL,
		CreatedAt:        now,
	}
	if err := i.store.Upsert(ctx, models.UploadMetadataCollection, objectPath, staged); err != nil {
		i.logger.WithError(err).WithField("object_path", objectPath).Warn("Failed to stage upload metadata; defaults will be used")
	}
}

// baseName strips any directory components a client may have sent.
func baseName(fileName string) string {
	b := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if b == "." || b == "/" || b == ".." {
		return ""
	}
	return b
}
