package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	pkgerrors "matflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService(JWTConfig{SecretKey: "s3cret", Issuer: "matflow", TTL: time.Hour})
	require.NoError(t, err)

	token, err := svc.GenerateToken("user-1", "a@example.com", []string{"user"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, []string{"user"}, claims.Roles)
}

func TestTokenService_Rejects(t *testing.T) {
	svc, err := NewTokenService(JWTConfig{SecretKey: "s3cret", TTL: time.Hour})
	require.NoError(t, err)
	other, err := NewTokenService(JWTConfig{SecretKey: "other", TTL: time.Hour})
	require.NoError(t, err)

	forged, err := other.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	expiredSvc, err := NewTokenService(JWTConfig{SecretKey: "s3cret", TTL: time.Minute})
	require.NoError(t, err)
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"missing", "", ErrMissingToken},
		{"bearer only", "Bearer ", ErrMissingToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong secret", forged, ErrInvalidSignature},
		{"expired", expired, ErrExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = NewTokenService(JWTConfig{})
	assert.Error(t, err)
	_, err = svc.GenerateToken("", "", nil)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).cost)

	_, err = h.Hash(strings.Repeat("x", 100))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestKeyedLimiter(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewKeyedLimiter(60, 2)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "one token refills per second")

	require.NoError(t, l.Reset(ctx, "1.2.3.4"))
	now = now.Add(time.Hour)
	assert.Equal(t, 1, l.Sweep())
}
