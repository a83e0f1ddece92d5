package token_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-task-client/token"
	"github.com/jrsteele09/go-task-client/users"
	"github.com/stretchr/testify/require"
)

const secretStr = "1234"

func newManager(t *testing.T, now *time.Time) *token.Manager {
	t.Helper()
	m, err := token.NewManager(token.NewHMACSigner(secretStr), 15*time.Minute,
		token.WithNowFunc(func() time.Time { return *now }))
	require.NoError(t, err)
	return m
}

func TestCreateAndVerifyAccessToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := newManager(t, &now)

	raw, err := m.CreateAccessToken(&users.User{ID: "user-1", Role: users.RoleAdmin})
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, users.RoleAdmin, claims.Role)
	require.NotEmpty(t, claims.JTI)
	require.True(t, claims.ExpiresAt.Equal(now.Add(15*time.Minute)))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := newManager(t, &now)

	raw, err := m.CreateAccessToken(&users.User{ID: "user-1", Role: users.RoleUser})
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = m.Verify(raw)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)
	other, err := token.NewManager(token.NewHMACSigner("other-secret"), time.Minute)
	require.NoError(t, err)

	raw, err := other.CreateAccessToken(&users.User{ID: "user-1", Role: users.RoleUser})
	require.NoError(t, err)

	_, err = m.Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = m.Verify("not-a-jwt")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)

	raw, err := m.CreateAccessToken(&users.User{ID: "user-1", Role: users.RoleUser})
	require.NoError(t, err)
	claims, err := m.Verify(raw)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(claims))
	_, err = m.Verify(raw)
	require.ErrorIs(t, err, token.ErrTokenRevoked)
}

func TestDenylistForgetsExpiredTokens(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := token.NewMemoryDenylist()
	d.Revoke("a", now.Add(time.Minute))
	d.Revoke("b", now.Add(time.Hour))
	require.True(t, d.Revoked("a", now))

	later := now.Add(2 * time.Minute)
	require.False(t, d.Revoked("a", later))
	require.Equal(t, 1, d.Prune(later))
	require.True(t, d.Revoked("b", later))
	require.Zero(t, d.Prune(later))
}

func TestRevokeNeedsJTI(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)
	require.ErrorIs(t, m.Revoke(&token.Claims{UserID: "user-1"}), token.ErrInvalidToken)
}

func TestNewManagerValidates(t *testing.T) {
	_, err := token.NewManager(nil, time.Minute)
	require.Error(t, err)
	_, err = token.NewManager(token.NewHMACSigner(secretStr), 0)
	require.Error(t, err)
}
