package authapi

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-task-client/apiclient"
	"github.com/jrsteele09/go-task-client/session"
)

const (
	RouteLogin    = "/api/auth/login"
	RouteRefresh  = "/api/auth/refresh"
	RouteLogout   = "/api/auth/logout"
	RouteRegister = "/api/auth/register"
)

var _ session.Authenticator = (*Client)(nil)

// Client talks to the auth endpoints. Its apiclient must be built on an
// http.Client that shares the cookie jar with the authenticated pipeline but
// not the pipeline itself: auth calls are never intercepted or retried.
type Client struct {
	api         *apiclient.Client
	refreshPath string
}

// Option configures the auth client
type Option func(*Client)

// WithRefreshPath overrides the refresh route
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.refreshPath = path
		}
	}
}

func New(api *apiclient.Client, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("[authapi.New] api client is required")
	}
	c := &Client{api: api, refreshPath: RouteRefresh}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RefreshPath is the route the transport must let through untouched
func (c *Client) RefreshPath() string {
	return c.refreshPath
}

type tokenResponse struct {
	Message     string            `json:"message,omitempty"`
	AccessToken string            `json:"accessToken"`
	User        *session.Identity `json:"user"`
}

func (r tokenResponse) credential() *session.Credential {
	cred := &session.Credential{AccessToken: r.AccessToken}
	if r.User != nil {
		cred.User = *r.User
	}
	return cred
}

func (c *Client) Login(ctx context.Context, req session.LoginRequest) (*session.Credential, error) {
	var resp tokenResponse
	if err := c.api.Post(ctx, RouteLogin, req, &resp); err != nil {
		return nil, err
	}
	cred := resp.credential()
	if !cred.Valid() {
		return nil, session.ErrPartialCredential
	}
	return cred, nil
}

// Refresh exchanges the refresh cookie for a new access token. The response
// may omit the user, in which case the returned credential has no identity.
func (c *Client) Refresh(ctx context.Context) (*session.Credential, error) {
	var resp tokenResponse
	if err := c.api.Post(ctx, c.refreshPath, struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, session.ErrPartialCredential
	}
	return resp.credential(), nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.api.Post(ctx, RouteLogout, struct{}{}, nil)
}

func (c *Client) Register(ctx context.Context, req session.RegisterRequest) error {
	return c.api.Post(ctx, RouteRegister, req, nil)
}
