package tasks

import (
	"context"

	"github.com/jrsteele09/go-task-client/apiclient"
)

const (
	routeTasks        = "/api/tasks"
	routeTask         = "/api/tasks/%s"
	routeTaskRespond  = "/api/tasks/%s/respond"
	routeAdminTasks   = "/api/tasks/admin/all"
	routeAdminTask    = "/api/tasks/admin/%s"
	routeAssign       = "/api/tasks/assign"
	routeAssignedList = "/api/tasks/assigned"
)

// Client wraps the task endpoints of the REST API
type Client struct {
	api *apiclient.Client
}

func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

type taskResponse struct {
	Message string `json:"message,omitempty"`
	Task    *Task  `json:"task"`
}

type respondRequest struct {
	Response AssignmentStatus `json:"response"`
}

// List returns the caller's own tasks
func (c *Client) List(ctx context.Context) ([]*Task, error) {
	var list []*Task
	if err := c.api.Get(ctx, routeTasks, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Create(ctx context.Context, in Input) (*Task, error) {
	var resp taskResponse
	if err := c.api.Post(ctx, routeTasks, in, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

func (c *Client) Update(ctx context.Context, id string, u Update) (*Task, error) {
	var resp taskResponse
	if err := c.api.Put(ctx, apiclient.Pathf(routeTask, id), u, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.api.Delete(ctx, apiclient.Pathf(routeTask, id), nil)
}

// AdminList returns every task in the system (admin only)
func (c *Client) AdminList(ctx context.Context) ([]*Task, error) {
	var list []*Task
	if err := c.api.Get(ctx, routeAdminTasks, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AdminUpdate changes any task (admin only)
func (c *Client) AdminUpdate(ctx context.Context, id string, u Update) (*Task, error) {
	var resp taskResponse
	if err := c.api.Put(ctx, apiclient.Pathf(routeAdminTask, id), u, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

// AdminDelete removes any task (admin only)
func (c *Client) AdminDelete(ctx context.Context, id string) error {
	return c.api.Delete(ctx, apiclient.Pathf(routeAdminTask, id), nil)
}

// Assign creates a task for another user (admin only)
func (c *Client) Assign(ctx context.Context, a Assignment) (*Task, error) {
	var resp taskResponse
	if err := c.api.Post(ctx, routeAssign, a, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

// Assigned returns tasks assigned to the caller by an admin
func (c *Client) Assigned(ctx context.Context) ([]*Task, error) {
	var list []*Task
	if err := c.api.Get(ctx, routeAssignedList, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Respond accepts or rejects an assigned task
func (c *Client) Respond(ctx context.Context, id string, response AssignmentStatus) (*Task, error) {
	if response != AssignmentAccepted && response != AssignmentRejected {
		return nil, ErrInvalidResponse
	}
	var resp taskResponse
	if err := c.api.Patch(ctx, apiclient.Pathf(routeTaskRespond, id), respondRequest{Response: response}, &resp); err != nil {
		return nil, err
	}
	return resp.Task, nil
}
