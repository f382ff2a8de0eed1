package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, f *fixture) *AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(&RegisterRequest{Username: "alice", Email: "Alice@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	return resp
}

func TestAuthService_RegisterIssuesToken(t *testing.T) {
	f := setup(t)
	resp := register(t, f)

	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEqual(t, "secret123", resp.User.PasswordHash)

	user, err := f.auth.Authenticate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.UserID, user.UserID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := setup(t)
	register(t, f)

	_, err := f.auth.Register(&RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.auth.Register(&RegisterRequest{Username: " ", Email: "bob@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.auth.Register(&RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Login(t *testing.T) {
	f := setup(t)
	registered := register(t, f)

	resp, err := f.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.UserID, resp.User.UserID)
	assert.NotEqual(t, registered.Token, resp.Token)

	_, err = f.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "invalid email or password")

	_, err = f.auth.Login(&LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_AuthenticateRejectsBadTokens(t *testing.T) {
	f := setup(t)
	resp := register(t, f)

	_, err := f.auth.Authenticate("")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.auth.Authenticate("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.auth.Logout(resp.Token))
	_, err = f.auth.Authenticate(resp.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_ExpiredToken(t *testing.T) {
	f := setup(t)
	resp := register(t, f)

	svc := f.auth.(*authService)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := f.auth.Authenticate(resp.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "token expired")

	n, err := f.auth.PurgeExpiredSessions()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "expired session already removed on use")
}

func TestAuthService_UpdateProfileAndPassword(t *testing.T) {
	f := setup(t)
	resp := register(t, f)
	other, err := f.auth.Register(&RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "secret123"})
	require.NoError(t, err)

	user, err := f.auth.UpdateProfile(resp.User.UserID, &UpdateProfileRequest{Username: "Alice A."})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = f.auth.UpdateProfile(resp.User.UserID, &UpdateProfileRequest{Email: other.User.Email})
	assert.ErrorIs(t, err, ErrConflict)

	err = f.auth.ChangePassword(resp.User.UserID, &ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newsecret"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.auth.ChangePassword(resp.User.UserID, &ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newsecret"}))
	_, err = f.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "newsecret"})
	require.NoError(t, err)

	_, err = f.auth.Profile("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
