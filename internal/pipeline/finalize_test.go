package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamshare/internal/queue"
	"streamshare/models"
)

func newTestListener(store *flakyStore, pub *fakePublisher) *FinalizeListener {
	l := NewFinalizeListener(store, pub, "raw", quietLogger())
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return l
}

func TestDeriveIdentifiers(t *testing.T) {
	owner, file, id, ok := DeriveIdentifiers("u1/171-abc123.mp4")
	assert.True(t, ok)
	assert.Equal(t, "u1", owner)
	assert.Equal(t, "171-abc123.mp4", file)
	assert.Equal(t, "171-abc123", id)

	_, _, id, ok = DeriveIdentifiers("u1/archive.tar.gz")
	assert.True(t, ok)
	assert.Equal(t, "archive.tar", id)

	_, _, _, ok = DeriveIdentifiers("/x.mp4")
	assert.False(t, ok)
	_, _, _, ok = DeriveIdentifiers("u1/.mp4")
	assert.False(t, ok)
}

func TestHandleObjectFinalized_IgnoresOtherBuckets(t *testing.T) {
	store := newFlakyStore()
	pub := &fakePublisher{}
	l := newTestListener(store, pub)

	for _, obj := range []queue.ObjectFinalized{
		{Bucket: "processed", Name: "abc_360p.mp4"},
		{Bucket: "raw", Name: ""},
		{Bucket: "raw", Name: "u1/"},
	} {
		assert.Equal(t, FinalizeIgnored, l.HandleObjectFinalized(context.Background(), obj))
	}
	assert.Zero(t, store.upserts[models.VideosCollection])
	assert.Empty(t, pub.sent)
}

func TestHandleObjectFinalized_CreatesRecordAndEvent(t *testing.T) {
	store := newFlakyStore()
	pub := &fakePublisher{}
	l := newTestListener(store, pub)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, models.UploadMetadataCollection, "u1/171-abc123.mp4", models.UploadMetadata{
		Title:      "Beach day",
		Visibility: models.VisibilityUnlisted,
		Tags:       []string{"beach", "summer"},
		UserName:   "Ada",
		FileSize:   2048,
	}))

	res := l.HandleObjectFinalized(ctx, queue.ObjectFinalized{Bucket: "raw", Name: "u1/171-abc123.mp4", Size: 1000})
	assert.Equal(t, FinalizeCreated, res)

	var rec models.VideoRecord
	found, err := store.Get(ctx, models.VideosCollection, "171-abc123", &rec)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusProcessing, rec.Status)
	assert.Equal(t, "u1", rec.OwnerID)
	assert.Equal(t, "Beach day", rec.Title)
	assert.Equal(t, models.VisibilityUnlisted, rec.Visibility)
	assert.Equal(t, []string{"beach", "summer"}, rec.Tags)
	assert.Equal(t, "Ada", rec.OwnerName)
	assert.Equal(t, int64(2048), rec.FileSize)
	assert.Empty(t, rec.Outputs)

	found, err = store.Get(ctx, models.UploadMetadataCollection, "u1/171-abc123.mp4", &models.UploadMetadata{})
	require.NoError(t, err)
	assert.False(t, found, "staging record is consumed")

	require.Len(t, pub.sent, 1)
	assert.Equal(t, models.IngestionTopic, pub.sent[0].topic)
	var ev models.IngestionEvent
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &ev))
	assert.Equal(t, models.IngestionEvent{
		VideoID:          "171-abc123",
		SourceObjectPath: "u1/171-abc123.mp4",
		BucketName:       "raw",
		OwnerID:          "u1",
		Title:            "Beach day",
	}, ev)
}

func TestHandleObjectFinalized_StagingLookupFails(t *testing.T) {
	store := newFlakyStore()
	store.failGet[models.UploadMetadataCollection] = true
	pub := &fakePublisher{}
	l := newTestListener(store, pub)
	ctx := context.Background()

	res := l.HandleObjectFinalized(ctx, queue.ObjectFinalized{Bucket: "raw", Name: "u1/171-abc123.mp4"})
	assert.Equal(t, FinalizeCreated, res)
	assert.Equal(t, 1, store.upserts[models.VideosCollection])
	assert.Len(t, pub.sent, 1)

	var rec models.VideoRecord
	_, err := store.Get(ctx, models.VideosCollection, "171-abc123", &rec)
	require.NoError(t, err)
	assert.Equal(t, "171-abc123", rec.Title)
	assert.Equal(t, models.VisibilityPublic, rec.Visibility)
	assert.Equal(t, "Unknown User", rec.OwnerName)
}

func TestHandleObjectFinalized_Redelivery(t *testing.T) {
	store := newFlakyStore()
	pub := &fakePublisher{}
	l := newTestListener(store, pub)
	ctx := context.Background()
	obj := queue.ObjectFinalized{Bucket: "raw", Name: "u1/171-abc123.mp4"}

	require.Equal(t, FinalizeCreated, l.HandleObjectFinalized(ctx, obj))

	var rec models.VideoRecord
	_, err := store.Get(ctx, models.VideosCollection, "171-abc123", &rec)
	require.NoError(t, err)
	rec.Status = models.StatusProcessed
	require.NoError(t, store.Upsert(ctx, models.VideosCollection, rec.ID, rec))

	assert.Equal(t, FinalizeDuplicate, l.HandleObjectFinalized(ctx, obj))
	assert.Equal(t, 2, store.upserts[models.VideosCollection], "the duplicate does not rewrite the record")
	assert.Len(t, pub.sent, 2)

	_, err = store.Get(ctx, models.VideosCollection, "171-abc123", &rec)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, rec.Status)
}

func TestHandleObjectFinalized_Failures(t *testing.T) {
	ctx := context.Background()
	obj := queue.ObjectFinalized{Bucket: "raw", Name: "u1/171-abc123.mp4"}

	store := newFlakyStore()
	store.failUpsert[models.VideosCollection] = true
	pub := &fakePublisher{}
	assert.Equal(t, FinalizeFailed, newTestListener(store, pub).HandleObjectFinalized(ctx, obj))
	assert.Empty(t, pub.sent, "no event without a record")

	pub = &fakePublisher{err: errBackend}
	assert.Equal(t, FinalizeFailed, newTestListener(newFlakyStore(), pub).HandleObjectFinalized(ctx, obj))
}

func TestDeriveIdentifiers_NeedsOwnerPrefix(t *testing.T) {
	_, _, _, ok := DeriveIdentifiers("loose.mp4")
	assert.False(t, ok)
}
