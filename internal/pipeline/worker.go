package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"streamshare/internal/db"
	"streamshare/internal/metrics"
	"streamshare/internal/storage"
	"streamshare/models"
)

// Outcome is the result of one worker invocation, used by the caller to
// settle the delivery.
type Outcome string

const (
	// OutcomeProcessed: every rendition exists and the record is processed.
	OutcomeProcessed Outcome = "processed"
	// OutcomeRejected: the event can never be processed.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed: processing failed and the error is on the record.
	OutcomeFailed Outcome = "failed"
	// OutcomeRetry: the failure could not be recorded; redeliver.
	OutcomeRetry Outcome = "retry"
)

// Worker transcodes one ingestion event at a time.
type Worker struct {
	objects         storage.ObjectStore
	store           db.Store
	transcoder      Transcoder
	processedBucket string
	scratchRoot     string
	profiles        []Profile
	logger          *logrus.Logger
	now             func() time.Time
}

// NewWorker creates a Worker rendering profiles into processedBucket. Scratch
// directories are created under scratchRoot (os.TempDir when empty).
func NewWorker(objects storage.ObjectStore, store db.Store, transcoder Transcoder, processedBucket, scratchRoot string, profiles []Profile, logger *logrus.Logger) *Worker {
	return &Worker{
		objects:         objects,
		store:           store,
		transcoder:      transcoder,
		processedBucket: processedBucket,
		scratchRoot:     scratchRoot,
		profiles:        profiles,
		logger:          logger,
		now:             time.Now,
	}
}

// ProcessMessage decodes an ingestion event payload and processes it.
func (w *Worker) ProcessMessage(ctx context.Context, body []byte) Outcome {
	var ev models.IngestionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		w.logger.WithError(err).Warn("Invalid ingestion event payload")
		metrics.Invocations.WithLabelValues(string(OutcomeRejected)).Inc()
		return OutcomeRejected
	}
	return w.Process(ctx, ev)
}

// Process runs every profile for ev and records the terminal state. It is
// safe to call repeatedly for the same event.
func (w *Worker) Process(ctx context.Context, ev models.IngestionEvent) Outcome {
	out := w.process(ctx, ev)
	metrics.Invocations.WithLabelValues(string(out)).Inc()
	return out
}

func (w *Worker) process(ctx context.Context, ev models.IngestionEvent) Outcome {
	if ev.VideoID == "" || ev.SourceObjectPath == "" || ev.BucketName == "" {
		w.logger.WithFields(logrus.Fields{
			"video_id":    ev.VideoID,
			"source_path": ev.SourceObjectPath,
			"bucket":      ev.BucketName,
		}).Warn("Missing required fields")
		return OutcomeRejected
	}

	log := w.logger.WithFields(logrus.Fields{"video_id": ev.VideoID, "source_path": ev.SourceObjectPath})
	if rec, found := w.loadRecord(ctx, ev.VideoID, log); found && w.alreadyProcessed(rec) {
		log.Info("Video already processed; nothing to do")
		return OutcomeProcessed
	}

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	outputs, duration, err := w.transcodeAll(ctx, ev, log)
	if err != nil {
		log.WithError(err).Error("Error processing video")
		return w.recordFailure(ctx, ev, err, log)
	}

	if err := w.recordSuccess(ctx, ev, outputs, duration); err != nil {
		log.WithError(err).Error("Error recording processed video")
		return w.recordFailure(ctx, ev, err, log)
	}
	log.WithField("renditions", len(outputs)).Info("Video processing completed successfully")
	return OutcomeProcessed
}

// transcodeAll downloads the source into a per-invocation scratch directory
// and renders the profiles in order. The directory is removed on return.
func (w *Worker) transcodeAll(ctx context.Context, ev models.IngestionEvent, log *logrus.Entry) ([]models.RenditionRef, time.Duration, error) {
	scratch, err := os.MkdirTemp(w.scratchRoot, "transcode-"+safeName(ev.VideoID)+"-")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.WithError(err).Warn("Failed to remove scratch directory")
		}
	}()

	input := filepath.Join(scratch, "input"+path.Ext(ev.SourceObjectPath))
	log.WithField("bucket", ev.BucketName).Info("Downloading source video")
	if err := w.objects.Download(ctx, ev.BucketName, ev.SourceObjectPath, input); err != nil {
		return nil, 0, fmt.Errorf("failed to download source video: %w", err)
	}

	outputs := make([]models.RenditionRef, 0, len(w.profiles))
	for _, p := range w.profiles {
		ref, err := w.render(ctx, ev.VideoID, input, scratch, p, log)
		if err != nil {
			return nil, 0, err
		}
		outputs = append(outputs, ref)
	}

	duration, err := w.transcoder.Duration(ctx, input)
	if err != nil {
		log.WithError(err).Warn("Could not read video duration")
		duration = 0
	}
	return outputs, duration, nil
}

func (w *Worker) render(ctx context.Context, videoID, input, scratch string, p Profile, log *logrus.Entry) (models.RenditionRef, error) {
	start := time.Now()
	outName := fmt.Sprintf("%s_%s.mp4", videoID, p.Name)
	outPath := filepath.Join(scratch, safeName(outName))
	defer os.Remove(outPath)

	log = log.WithField("profile", p.Name)
	log.Info("Processing rendition")
	res := w.transcoder.Transcode(ctx, input, outPath, p)
	if res.Outcome != TranscodeSucceeded {
		err := res.Err
		if err == nil {
			err = errors.New("transcoder reported failure")
		}
		return models.RenditionRef{}, fmt.Errorf("error processing %s: %w", p.Name, err)
	}

	url, err := w.objects.Upload(ctx, w.processedBucket, outName, outPath, "video/mp4")
	if err != nil {
		return models.RenditionRef{}, fmt.Errorf("error uploading %s: %w", p.Name, err)
	}
	metrics.RenditionDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
	log.Info("Uploaded rendition")

	return models.RenditionRef{ProfileName: p.Name, LocationURL: url, OutputFileName: outName}, nil
}

func (w *Worker) alreadyProcessed(rec *models.VideoRecord) bool {
	if rec.Status != models.StatusProcessed {
		return false
	}
	for _, p := range w.profiles {
		if !rec.HasRendition(p.Name) {
			return false
		}
	}
	return true
}

func (w *Worker) loadRecord(ctx context.Context, videoID string, log *logrus.Entry) (*models.VideoRecord, bool) {
	var rec models.VideoRecord
	found, err := w.store.Get(ctx, models.VideosCollection, videoID, &rec)
	if err != nil {
		log.WithError(err).Warn("Could not read video document")
		return nil, false
	}
	return &rec, found
}

// currentRecord returns the stored record, or one rebuilt from the event
// when the store has none.
func (w *Worker) currentRecord(ctx context.Context, ev models.IngestionEvent) (*models.VideoRecord, error) {
	var rec models.VideoRecord
	found, err := w.store.Get(ctx, models.VideosCollection, ev.VideoID, &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to read video %s: %w", ev.VideoID, err)
	}
	if found {
		return &rec, nil
	}
	now := w.now()
	return &models.VideoRecord{
		ID:               ev.VideoID,
		OwnerID:          ev.OwnerID,
		Status:           models.StatusProcessing,
		SourceObjectPath: ev.SourceObjectPath,
		FileName:         path.Base(ev.SourceObjectPath),
		Title:            ev.Title,
		Visibility:       models.VisibilityPublic,
		Tags:             []string{},
		Outputs:          []models.RenditionRef{},
		CreatedAt:        now,
	}, nil
}

func (w *Worker) recordSuccess(ctx context.Context, ev models.IngestionEvent, outputs []models.RenditionRef, duration time.Duration) error {
	rec, err := w.currentRecord(ctx, ev)
	if err != nil {
		return err
	}
	now := w.now()
	rec.Status = models.StatusProcessed
	rec.Outputs = outputs
	rec.ErrorMessage = nil
	rec.ProcessedAt = &now
	rec.UpdatedAt = now
	if duration > 0 {
		rec.Duration = duration.Seconds()
	}
	return w.store.Upsert(ctx, models.VideosCollection, ev.VideoID, rec)
}

// recordFailure marks the record as failed. A record that is already
// processed, e.g. by a concurrent duplicate delivery, is left untouched.
func (w *Worker) recordFailure(ctx context.Context, ev models.IngestionEvent, cause error, log *logrus.Entry) Outcome {
	rec, err := w.currentRecord(ctx, ev)
	if err != nil {
		log.WithError(err).Error("Error updating video with error status")
		return OutcomeRetry
	}
	if rec.Status == models.StatusProcessed {
		log.Warn("Keeping processed status despite failed redelivery")
		return OutcomeFailed
	}

	msg := cause.Error()
	now := w.now()
	rec.Status = models.StatusError
	rec.ErrorMessage = &msg
	rec.Outputs = []models.RenditionRef{}
	rec.UpdatedAt = now
	if err := w.store.Upsert(ctx, models.VideosCollection, ev.VideoID, rec); err != nil {
		log.WithError(err).Error("Error updating video with error status")
		return OutcomeRetry
	}
	return OutcomeFailed
}

// safeName keeps a video id usable as a single path element.
func safeName(s string) string {
	return strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(s)
}
