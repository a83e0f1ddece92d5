package session

import "context"

// Repo persists the session record under a single well-known key. A missing
// record is reported as (nil, nil).
type Repo interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred Credential) error
	Remove(ctx context.Context) error
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticator talks to the server's auth endpoints. Refresh authenticates
// with the ambient refresh cookie only; it must never send the access token.
type Authenticator interface {
	Login(ctx context.Context, req LoginRequest) (*Credential, error)
	Refresh(ctx context.Context) (*Credential, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, req RegisterRequest) error
}
