package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"streamshare/internal/auth"
	"streamshare/internal/db"
	"streamshare/models"
)

// Users keeps the profile document of signed-in callers.
type Users struct {
	store  db.Store
	logger *logrus.Logger
	now    func() time.Time
}

func NewUsers(store db.Store, logger *logrus.Logger) *Users {
	return &Users{store: store, logger: logger, now: time.Now}
}

// EnsureProfile writes users/<uid> from the caller identity. The original
// creation time is kept when the profile already exists.
func (u *Users) EnsureProfile(ctx context.Context, caller *auth.Identity) (*models.UserProfile, error) {
	if caller == nil || caller.UID == "" {
		return nil, errUnauthenticated("User must be authenticated")
	}

	profile := models.UserProfile{
		UID:         caller.UID,
		Email:       caller.Email,
		DisplayName: caller.DisplayName,
		PhotoURL:    caller.PhotoURL,
		CreatedAt:   u.now(),
	}

	var existing models.UserProfile
	found, err := u.store.Get(ctx, models.UsersCollection, caller.UID, &existing)
	if err != nil {
		u.logger.WithError(err).WithField("uid", caller.UID).Warn("Could not read user profile")
	} else if found && !existing.CreatedAt.IsZero() {
		profile.CreatedAt = existing.CreatedAt
	}

	if err := u.store.Upsert(ctx, models.UsersCollection, caller.UID, profile); err != nil {
		u.logger.WithError(err).WithField("uid", caller.UID).Error("Error creating user document")
		return nil, errInternal("Failed to save user profile")
	}
	return &profile, nil
}
