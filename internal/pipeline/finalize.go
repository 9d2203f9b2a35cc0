package pipeline

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"streamshare/internal/db"
	"streamshare/internal/metrics"
	"streamshare/internal/queue"
	"streamshare/models"
)

// FinalizeResult reports what the listener did with a notification. It is
// informational only; the listener never signals failure to its trigger.
type FinalizeResult string

const (
	FinalizeIgnored   FinalizeResult = "ignored"
	FinalizeCreated   FinalizeResult = "created"
	FinalizeDuplicate FinalizeResult = "duplicate"
	FinalizeFailed    FinalizeResult = "failed"
)

// FinalizeListener turns completed raw uploads into video records and
// ingestion events.
type FinalizeListener struct {
	store     db.Store
	publisher queue.Publisher
	rawBucket string
	logger    *logrus.Logger
	now       func() time.Time
}

// NewFinalizeListener creates a listener that only acts on writes to rawBucket.
func NewFinalizeListener(store db.Store, publisher queue.Publisher, rawBucket string, logger *logrus.Logger) *FinalizeListener {
	return &FinalizeListener{store: store, publisher: publisher, rawBucket: rawBucket, logger: logger, now: time.Now}
}

// DeriveIdentifiers splits an object path into owner id, file name and video
// id. ok is false when the path cannot name a video.
func DeriveIdentifiers(objectPath string) (ownerID, fileName, videoID string, ok bool) {
	parts := strings.Split(objectPath, "/")
	ownerID = parts[0]
	fileName = parts[len(parts)-1]
	videoID = strings.TrimSuffix(fileName, path.Ext(fileName))
	return ownerID, fileName, videoID, len(parts) > 1 && ownerID != "" && videoID != ""
}

// HandleObjectFinalized processes one completed object write.
func (l *FinalizeListener) HandleObjectFinalized(ctx context.Context, obj queue.ObjectFinalized) FinalizeResult {
	res := l.handle(ctx, obj)
	metrics.ObjectsFinalized.WithLabelValues(string(res)).Inc()
	return res
}

func (l *FinalizeListener) handle(ctx context.Context, obj queue.ObjectFinalized) FinalizeResult {
	log := l.logger.WithFields(logrus.Fields{"bucket": obj.Bucket, "object_path": obj.Name})
	if obj.Name == "" || strings.HasSuffix(obj.Name, "/") {
		log.Info("No file path found")
		return FinalizeIgnored
	}
	if obj.Bucket != l.rawBucket {
		log.Debug("Ignoring write outside the raw upload bucket")
		return FinalizeIgnored
	}

	ownerID, fileName, videoID, ok := DeriveIdentifiers(obj.Name)
	if !ok {
		log.Warn("Object path does not name a video")
		return FinalizeIgnored
	}
	log = log.WithField("video_id", videoID)
	log.Info("Processing video upload")

	result := FinalizeCreated
	rec, duplicate := l.existingRecord(ctx, videoID, obj.Name, log)
	if duplicate {
		log.Info("Record already exists for this object; republishing ingestion event only")
		result = FinalizeDuplicate
	} else {
		rec = l.newRecord(obj, ownerID, fileName, videoID)
		if staged, found := l.takeStagedMetadata(ctx, obj.Name, log); found {
			mergeMetadata(rec, staged)
		}
		if err := l.store.Upsert(ctx, models.VideosCollection, videoID, rec); err != nil {
			log.WithError(err).Error("Error creating video document")
			return FinalizeFailed
		}
		log.Info("Created video document")
	}

	ev := models.IngestionEvent{
		VideoID:          videoID,
		SourceObjectPath: obj.Name,
		BucketName:       obj.Bucket,
		OwnerID:          ownerID,
		Title:            rec.Title,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Error("Error encoding ingestion event")
		return FinalizeFailed
	}
	if err := l.publisher.Publish(ctx, models.IngestionTopic, payload); err != nil {
		log.WithError(err).Error("Error publishing ingestion event")
		return FinalizeFailed
	}
	log.Info("Published ingestion event")
	return result
}

// existingRecord reports whether a record for this exact object already
// exists, which happens when the storage notification is redelivered.
func (l *FinalizeListener) existingRecord(ctx context.Context, videoID, objectPath string, log *logrus.Entry) (*models.VideoRecord, bool) {
	var rec models.VideoRecord
	found, err := l.store.Get(ctx, models.VideosCollection, videoID, &rec)
	if err != nil {
		log.WithError(err).Warn("Could not check for an existing video document")
		return nil, false
	}
	if !found || rec.SourceObjectPath != objectPath {
		return nil, false
	}
	return &rec, true
}

// takeStagedMetadata reads and deletes the staging record. Lookup or delete
// failures are logged and treated as no metadata.
func (l *FinalizeListener) takeStagedMetadata(ctx context.Context, objectPath string, log *logrus.Entry) (*models.UploadMetadata, bool) {
	var staged models.UploadMetadata
	found, err := l.store.Get(ctx, models.UploadMetadataCollection, objectPath, &staged)
	if err != nil {
		log.WithError(err).Warn("No metadata found, using defaults")
		return nil, false
	}
	if !found {
		return nil, false
	}
	if err := l.store.Delete(ctx, models.UploadMetadataCollection, objectPath); err != nil {
		log.WithError(err).Warn("Failed to clean up staged metadata")
	}
	return &staged, true
}

func (l *FinalizeListener) newRecord(obj queue.ObjectFinalized, ownerID, fileName, videoID string) *models.VideoRecord {
	now := l.now()
	return &models.VideoRecord{
		ID:               videoID,
		OwnerID:          ownerID,
		Status:           models.StatusProcessing,
		SourceObjectPath: obj.Name,
		FileName:         fileName,
		Title:            strings.TrimSuffix(fileName, path.Ext(fileName)),
		Visibility:       models.VisibilityPublic,
		Tags:             []string{},
		OwnerName:        "Unknown User",
		OriginalFileName: fileName,
		FileSize:         obj.Size,
		Outputs:          []models.RenditionRef{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func mergeMetadata(rec *models.VideoRecord, m *models.UploadMetadata) {
	if m.Title != "" {
		rec.Title = m.Title
	}
	rec.Description = m.Description
	if models.IsValidVisibility(m.Visibility) {
		rec.Visibility = m.Visibility
	}
	if m.Tags != nil {
		rec.Tags = m.Tags
	}
	if m.UserName != "" {
		rec.OwnerName = m.UserName
	}
	rec.OwnerAvatar = m.UserAvatar
	if m.OriginalFileName != "" {
		rec.OriginalFileName = m.OriginalFileName
	}
	if m.FileSize > 0 {
		rec.FileSize = m.FileSize
	}
}
