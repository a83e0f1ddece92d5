package users

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-task-client/apiclient"
)

const (
	routeUsers = "/api/users"
	routeUser  = "/api/users/%s"
	routeMe    = "/api/users/me"
)

// Client wraps the user endpoints of the REST API
type Client struct {
	api *apiclient.Client
}

func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

type userResponse struct {
	Message string `json:"message,omitempty"`
	User    *User  `json:"user"`
}

// List returns one page of users (admin only)
func (c *Client) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var p Page
	if err := c.api.Get(ctx, fmt.Sprintf("%s?page=%d&limit=%d", routeUsers, page, limit), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create adds a user (admin only)
func (c *Client) Create(ctx context.Context, in Input) (*User, error) {
	var resp userResponse
	if err := c.api.Post(ctx, routeUsers, in, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Update changes a user (admin only)
func (c *Client) Update(ctx context.Context, id string, in Input) (*User, error) {
	var resp userResponse
	if err := c.api.Put(ctx, apiclient.Pathf(routeUser, id), in, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Delete removes a user (admin only)
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.api.Delete(ctx, apiclient.Pathf(routeUser, id), nil)
}

// Me returns the authenticated user's profile
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.api.Get(ctx, routeMe, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe changes the authenticated user's profile
func (c *Client) UpdateMe(ctx context.Context, in Input) (*User, error) {
	var resp userResponse
	if err := c.api.Put(ctx, routeMe, in, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// DeleteMe removes the authenticated user's account
func (c *Client) DeleteMe(ctx context.Context) error {
	return c.api.Delete(ctx, routeMe, nil)
}
