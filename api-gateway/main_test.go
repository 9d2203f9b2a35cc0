package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamshare/api-gateway/handlers"
	"streamshare/config"
	"streamshare/internal/auth"
	"streamshare/internal/db"
	"streamshare/internal/pipeline"
)

type rejectAll struct{}

func (rejectAll) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	return nil, errors.New("no")
}

func TestNewApp_Routes(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	store := db.NewMemoryStore()
	h := handlers.NewApplicationHandler(nil, pipeline.NewQuery(store, log), pipeline.NewUsers(store, log), log)
	app := newApp(&config.Configuration{CORSOrigins: "*"}, h, rejectAll{}, log)

	for _, target := range []string{"/health", "/metrics", "/api/v1/videos"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, target)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer forged")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
