package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var ErrExpired = errors.New("refresh token expired")

const tokenLength = 32 // bytes, 256 bits

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo    Repo
	expiry  time.Duration
	nowFunc func() time.Time
}

func NewManager(repo Repo, expiry time.Duration) *Manager {
	return &Manager{
		repo:    repo,
		expiry:  expiry,
		nowFunc: time.Now,
	}
}

// WithNowFunc sets the clock (primarily for testing)
func (m *Manager) WithNowFunc(now func() time.Time) *Manager {
	m.nowFunc = now
	return m
}

// Create issues a new refresh token for userID, replacing any previous one
func (m *Manager) Create(userID string) (string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    m.nowFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate validates token and exchanges it for a new one. The old token is
// unusable afterwards whatever the outcome.
func (m *Manager) Rotate(token string) (newToken, userID string, err error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return "", "", err
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return "", "", ErrExpired
	}
	newToken, err = m.Create(rt.UserID)
	if err != nil {
		return "", "", err
	}
	return newToken, rt.UserID, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// DeleteForUser removes whatever refresh token userID holds
func (m *Manager) DeleteForUser(userID string) error {
	rt, err := m.repo.GetByUserID(userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.repo.Delete(rt.Token)
}

func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return m.nowFunc().Sub(rt.Iat) > m.expiry
}

// Expiry is the lifetime of new refresh tokens
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}
