package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-task-client/users"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token expired")
	ErrTokenRevoked = errors.New("access token revoked")
)

// Claims are the verified contents of an access token
type Claims struct {
	UserID    string
	Role      users.RoleType
	JTI       string
	ExpiresAt time.Time
}

// Manager issues and verifies access tokens
type Manager struct {
	signer  Signer
	denied  Denylist
	expiry  time.Duration
	nowFunc func() time.Time
}

type Option func(*Manager)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithDenylist replaces the in-memory denylist consulted on Verify
func WithDenylist(d Denylist) Option {
	return func(m *Manager) {
		m.denied = d
	}
}

func NewManager(signer Signer, expiry time.Duration, opts ...Option) (*Manager, error) {
	if signer == nil {
		return nil, errors.New("[token.NewManager] signer is required")
	}
	if expiry <= 0 {
		return nil, errors.New("[token.NewManager] expiry must be positive")
	}
	m := &Manager{
		signer:  signer,
		denied:  NewMemoryDenylist(),
		expiry:  expiry,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CreateAccessToken signs a token for user carrying its id and role
func (m *Manager) CreateAccessToken(user *users.User) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.expiry).Unix(),
		"jti":  uuid.NewString(), // Unique token ID for revocation
	}
	return m.signer.Sign(claims)
}

// Verify checks the signature, expiry and revocation of raw
func (m *Manager) Verify(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.Parse(raw, m.signer.GetVerificationKey)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := mc.GetSubject()
	role, _ := mc["role"].(string)
	jti, _ := mc["jti"].(string)
	exp, _ := mc.GetExpirationTime()
	if sub == "" || jti == "" || exp == nil {
		return nil, ErrInvalidToken
	}
	if m.denied.Revoked(jti, m.nowFunc()) {
		return nil, ErrTokenRevoked
	}
	return &Claims{UserID: sub, Role: users.RoleType(role), JTI: jti, ExpiresAt: exp.Time}, nil
}

// Revoke denies the token with the given claims until it would have expired
// anyway. Logout calls it so the access token dies with the refresh cookie.
func (m *Manager) Revoke(c *Claims) error {
	if c == nil || c.JTI == "" {
		return ErrInvalidToken
	}
	m.denied.Prune(m.nowFunc())
	m.denied.Revoke(c.JTI, c.ExpiresAt)
	return nil
}

// Expiry is the lifetime of new access tokens
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}
