package tasks

import (
	"errors"
	"time"
)

// Status is the progress of a task
type Status string

const (
	StatusPending   Status = "pending"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusCompleted:
		return true
	}
	return false
}

// AssignmentStatus tracks how a task reached its owner
type AssignmentStatus string

const (
	AssignmentSelfCreated AssignmentStatus = "self-created" // Created by the owner
	AssignmentAssigned    AssignmentStatus = "assigned"     // Assigned by an admin, awaiting a response
	AssignmentAccepted    AssignmentStatus = "accepted"
	AssignmentRejected    AssignmentStatus = "rejected"
)

var (
	ErrInvalidResponse = errors.New("response must be accepted or rejected")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrTaskNotFound    = errors.New("task not found")
	ErrNotAssigned     = errors.New("task is not awaiting a response")
)

// UserRef is the populated summary of a user attached to a task
type UserRef struct {
	ID       string `json:"_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

type Task struct {
	ID               string           `json:"_id,omitempty"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	Status           Status           `json:"status"`
	DueDate          string           `json:"dueDate,omitempty"` // YYYY-MM-DD
	Owner            string           `json:"user,omitempty"`    // ID of the user the task belongs to
	AssignmentStatus AssignmentStatus `json:"assignmentStatus,omitempty"`
	AssignedBy       *UserRef         `json:"assignedBy,omitempty"`
	AssignedTo       *UserRef         `json:"assignedTo,omitempty"`
	CreatedAt        time.Time        `json:"createdAt,omitempty"`
	UpdatedAt        time.Time        `json:"updatedAt,omitempty"`
}

// Input is the body for creating a task
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// Update carries the fields to change; nil fields are left untouched
type Update struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

// Assignment is an admin request to give a new task to a user
type Assignment struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	UserID      string `json:"userId"`
}

// Apply copies the set fields of u onto t
func (u Update) Apply(t *Task) error {
	if u.Status != nil && !u.Status.Valid() {
		return ErrInvalidStatus
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	return nil
}

// Respond records an assignee's answer to an assigned task
func (t *Task) Respond(response AssignmentStatus) error {
	if response != AssignmentAccepted && response != AssignmentRejected {
		return ErrInvalidResponse
	}
	if t.AssignmentStatus != AssignmentAssigned {
		return ErrNotAssigned
	}
	t.AssignmentStatus = response
	return nil
}
