package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"createdAt"`
}

func TestMemoryStore_UpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var got doc
	found, err := s.Get(ctx, "videos", "a", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Upsert(ctx, "videos", "a", doc{OwnerID: "u1"}))
	found, err = s.Get(ctx, "videos", "a", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a", got.ID, "upsert sets the id field")
	assert.Equal(t, "u1", got.OwnerID)

	require.NoError(t, s.Upsert(ctx, "videos", "a", doc{OwnerID: "u2"}))
	_, _ = s.Get(ctx, "videos", "a", &got)
	assert.Equal(t, "u2", got.OwnerID, "upsert replaces the document")

	require.NoError(t, s.Delete(ctx, "videos", "a"))
	require.NoError(t, s.Delete(ctx, "videos", "a"))
	found, err = s.Get(ctx, "videos", "a", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []doc{
		{ID: "v1", OwnerID: "u1", Visibility: "public", CreatedAt: base},
		{ID: "v2", OwnerID: "u2", Visibility: "private", CreatedAt: base.Add(time.Hour)},
		{ID: "v3", OwnerID: "u1", Visibility: "private", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "v4", OwnerID: "u2", Visibility: "public", CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, d := range seed {
		require.NoError(t, s.Upsert(ctx, "videos", d.ID, d))
	}

	var got []doc
	err := s.Query(ctx, "videos", Query{
		AnyOf:      []Filter{{Field: "visibility", Value: "public"}, {Field: "ownerId", Value: "u1"}},
		OrderBy:    "createdAt",
		Descending: true,
	}, &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"v4", "v3", "v1"}, ids(got))

	got = nil
	err = s.Query(ctx, "videos", Query{
		Where:   []Filter{{Field: "ownerId", Value: "u2"}},
		OrderBy: "createdAt",
		Limit:   1,
	}, &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, ids(got))
}

func ids(docs []doc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
