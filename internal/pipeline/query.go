package pipeline

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"streamshare/internal/auth"
	"streamshare/internal/db"
	"streamshare/models"
)

// PageSize is the maximum number of records returned by ListVideos.
const PageSize = 50

// ListOptions narrows a ListVideos call.
type ListOptions struct {
	// Mine restricts the result to the caller's own records.
	Mine bool
}

// Query serves the read side of the video catalogue.
type Query struct {
	store  db.Store
	logger *logrus.Logger
}

func NewQuery(store db.Store, logger *logrus.Logger) *Query {
	return &Query{store: store, logger: logger}
}

// ListVideos returns the newest records visible to caller. Store failures
// are logged and yield an empty list.
func (q *Query) ListVideos(ctx context.Context, caller *auth.Identity, opts ListOptions) ([]models.VideoRecord, error) {
	uid := auth.UIDOf(caller)
	if opts.Mine && uid == "" {
		return nil, errUnauthenticated("User must be authenticated")
	}

	query := db.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      PageSize,
	}
	switch {
	case opts.Mine:
		query.Where = []db.Filter{{Field: "ownerId", Value: uid}}
	case uid != "":
		query.AnyOf = []db.Filter{
			{Field: "visibility", Value: models.VisibilityPublic},
			{Field: "ownerId", Value: uid},
		}
	default:
		query.Where = []db.Filter{{Field: "visibility", Value: models.VisibilityPublic}}
	}

	var found []models.VideoRecord
	if err := q.store.Query(ctx, models.VideosCollection, query, &found); err != nil {
		q.logger.WithError(err).WithField("uid", uid).Error("Error fetching videos")
		return []models.VideoRecord{}, nil
	}

	videos := make([]models.VideoRecord, 0, len(found))
	for i := range found {
		if found[i].VisibleTo(uid) {
			videos = append(videos, found[i])
		}
	}
	return videos, nil
}

// GetVideo returns one record. Private records are reported as missing to
// anyone but their owner.
func (q *Query) GetVideo(ctx context.Context, caller *auth.Identity, id string) (*models.VideoRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errInvalidArgument("Video ID is required")
	}

	var rec models.VideoRecord
	found, err := q.store.Get(ctx, models.VideosCollection, id, &rec)
	if err != nil {
		q.logger.WithError(err).WithField("video_id", id).Error("Error fetching video")
		return nil, errInternal("Failed to fetch video")
	}
	if !found {
		return nil, errNotFound("Video not found")
	}
	if rec.Visibility == models.VisibilityPrivate && rec.OwnerID != auth.UIDOf(caller) {
		return nil, errNotFound("Video not found")
	}
	return &rec, nil
}
