package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"streamshare/internal/auth"
	"streamshare/internal/pipeline"
	"streamshare/models"
)

// UploadIntake issues upload capabilities.
type UploadIntake interface {
	RequestUpload(ctx context.Context, caller *auth.Identity, req pipeline.UploadRequest) (*pipeline.UploadTicket, error)
}

// VideoQuery reads video records.
type VideoQuery interface {
	ListVideos(ctx context.Context, caller *auth.Identity, opts pipeline.ListOptions) ([]models.VideoRecord, error)
	GetVideo(ctx context.Context, caller *auth.Identity, id string) (*models.VideoRecord, error)
}

// ProfileService stores user profiles.
type ProfileService interface {
	EnsureProfile(ctx context.Context, caller *auth.Identity) (*models.UserProfile, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Intake UploadIntake
	Videos VideoQuery
	Users  ProfileService
	Logger *logrus.Logger
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(intake UploadIntake, videos VideoQuery, users ProfileService, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Intake: intake,
		Videos: videos,
		Users:  users,
		Logger: logger,
	}
}
