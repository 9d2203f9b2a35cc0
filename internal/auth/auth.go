// Package auth resolves the caller identity attached to a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Identity is the authenticated caller. A nil *Identity means anonymous.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// UIDOf returns id.UID, or "" for an anonymous caller.
func UIDOf(id *Identity) string {
	if id == nil {
		return ""
	}
	return id.UID
}

// TokenVerifier turns a bearer token into an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ErrNoToken is returned by BearerToken when the header carries no token.
var ErrNoToken = errors.New("no bearer token")

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// IDTokenVerifier is the subset of the Firebase auth client we call.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseVerifier verifies Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	client IDTokenVerifier
}

// NewFirebaseVerifier wraps a Firebase auth client.
func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid ID token: %w", err)
	}
	id := &Identity{
		UID:         t.UID,
		Email:       claim(t.Claims, "email"),
		DisplayName: claim(t.Claims, "name"),
		PhotoURL:    claim(t.Claims, "picture"),
	}
	if id.DisplayName == "" {
		id.DisplayName = id.Email
	}
	return id, nil
}

func claim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
