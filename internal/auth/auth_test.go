package auth

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFirebase struct {
	token *firebaseauth.Token
	err   error
}

func (s stubFirebase) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	return s.token, s.err
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer  xyz ", "xyz", false},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := BearerToken(tc.header)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrNoToken, tc.header)
			continue
		}
		require.NoError(t, err, tc.header)
		assert.Equal(t, tc.want, got)
	}
}

func TestFirebaseVerifier(t *testing.T) {
	v := NewFirebaseVerifier(stubFirebase{token: &firebaseauth.Token{
		UID:    "u1",
		Claims: map[string]interface{}{"email": "a@example.com", "picture": "https://img/a.png"},
	}})

	id, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &Identity{
		UID:         "u1",
		Email:       "a@example.com",
		DisplayName: "a@example.com",
		PhotoURL:    "https://img/a.png",
	}, id)

	v = NewFirebaseVerifier(stubFirebase{err: errors.New("expired")})
	_, err = v.Verify(context.Background(), "tok")
	assert.Error(t, err)
}

func TestUIDOf(t *testing.T) {
	assert.Equal(t, "", UIDOf(nil))
	assert.Equal(t, "u1", UIDOf(&Identity{UID: "u1"}))
}
