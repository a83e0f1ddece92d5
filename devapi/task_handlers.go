package devapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
)

const dueDateLayout = "2006-01-02"

type taskResponse struct {
	Message string      `json:"message"`
	Task    *tasks.Task `json:"task"`
}

type respondRequest struct {
	Response tasks.AssignmentStatus `json:"response"`
}

// ListTasksHandler returns the caller's tasks, leaving out assignments they
// have not accepted
func (s *Server) ListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFrom(r)
		s.writeTasks(w, func(t *tasks.Task) bool {
			return t.Owner == claims.UserID &&
				t.AssignmentStatus != tasks.AssignmentAssigned &&
				t.AssignmentStatus != tasks.AssignmentRejected
		})
	}
}

func (s *Server) AssignedTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFrom(r)
		s.writeTasks(w, func(t *tasks.Task) bool {
			return t.AssignedTo != nil && t.AssignedTo.ID == claims.UserID
		})
	}
}

func (s *Server) AdminListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeTasks(w, nil)
	}
}

func (s *Server) CreateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFrom(r)
		var in tasks.Input
		if !decodeBody(w, r, &in) {
			return
		}
		if msg := validateTask(in.Title, in.DueDate); msg != "" {
			writeMessage(w, http.StatusBadRequest, msg)
			return
		}
		if in.Status == "" {
			in.Status = tasks.StatusPending
		}
		if !in.Status.Valid() {
			writeMessage(w, http.StatusBadRequest, "Invalid task status")
			return
		}

		now := s.nowFunc()
		task := &tasks.Task{
			Title:            strings.TrimSpace(in.Title),
			Description:      in.Description,
			Status:           in.Status,
			DueDate:          in.DueDate,
			Owner:            claims.UserID,
			AssignmentStatus: tasks.AssignmentSelfCreated,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		s.saveTask(w, http.StatusCreated, task, "Task created successfully")
	}
}

func (s *Server) UpdateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, ok := s.ownTask(w, r)
		if !ok {
			return
		}
		s.updateTask(w, r, task)
	}
}

func (s *Server) DeleteTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, ok := s.ownTask(w, r)
		if !ok {
			return
		}
		s.deleteTask(w, task.ID)
	}
}

func (s *Server) AdminUpdateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := s.repos.Tasks.Get(r.PathValue("id"))
		if err != nil {
			writeMessage(w, http.StatusNotFound, "Task not found")
			return
		}
		s.updateTask(w, r, task)
	}
}

func (s *Server) AdminDeleteTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.deleteTask(w, r.PathValue("id"))
	}
}

// AssignTaskHandler creates a task owned by another user, awaiting their
// response
func (s *Server) AssignTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFrom(r)
		var in tasks.Assignment
		if !decodeBody(w, r, &in) {
			return
		}
		if msg := validateTask(in.Title, in.DueDate); msg != "" {
			writeMessage(w, http.StatusBadRequest, msg)
			return
		}

		assignee, err := s.repos.Users.GetByID(in.UserID)
		if err != nil {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		admin, err := s.repos.Users.GetByID(claims.UserID)
		if err != nil {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}

		now := s.nowFunc()
		task := &tasks.Task{
			Title:            strings.TrimSpace(in.Title),
			Description:      in.Description,
			Status:           tasks.StatusPending,
			DueDate:          in.DueDate,
			Owner:            assignee.ID,
			AssignmentStatus: tasks.AssignmentAssigned,
			AssignedBy:       userRef(admin),
			AssignedTo:       userRef(assignee),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		s.saveTask(w, http.StatusCreated, task, "Task assigned successfully")
	}
}

func (s *Server) RespondTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFrom(r)
		task, err := s.repos.Tasks.Get(r.PathValue("id"))
		if err != nil || task.AssignedTo == nil || task.AssignedTo.ID != claims.UserID {
			writeMessage(w, http.StatusNotFound, "Task not found")
			return
		}

		var in respondRequest
		if !decodeBody(w, r, &in) {
			return
		}
		if err := task.Respond(in.Response); err != nil {
			if errors.Is(err, tasks.ErrNotAssigned) {
				writeMessage(w, http.StatusConflict, "Task has already been answered")
				return
			}
			writeMessage(w, http.StatusBadRequest, "Response must be accepted or rejected")
			return
		}
		task.UpdatedAt = s.nowFunc()
		s.saveTask(w, http.StatusOK, task, "Task "+string(in.Response))
	}
}

// ownTask loads the task in the path when it belongs to the caller
func (s *Server) ownTask(w http.ResponseWriter, r *http.Request) (*tasks.Task, bool) {
	claims, _ := claimsFrom(r)
	task, err := s.repos.Tasks.Get(r.PathValue("id"))
	if err != nil || task.Owner != claims.UserID {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return nil, false
	}
	return task, true
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, task *tasks.Task) {
	var u tasks.Update
	if !decodeBody(w, r, &u) {
		return
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}
	if u.DueDate != nil && *u.DueDate != "" {
		if _, err := time.Parse(dueDateLayout, *u.DueDate); err != nil {
			writeMessage(w, http.StatusBadRequest, "Due date must be YYYY-MM-DD")
			return
		}
	}
	if err := u.Apply(task); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid task status")
		return
	}
	task.UpdatedAt = s.nowFunc()
	s.saveTask(w, http.StatusOK, task, "Task updated successfully")
}

func (s *Server) deleteTask(w http.ResponseWriter, id string) {
	if err := s.repos.Tasks.Delete(id); err != nil {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted successfully")
}

func (s *Server) saveTask(w http.ResponseWriter, status int, task *tasks.Task, msg string) {
	if err := s.repos.Tasks.Upsert(task); err != nil {
		s.logger.Error().Err(err).Msg("failed to store task")
		writeMessage(w, http.StatusInternalServerError, "Could not save task")
		return
	}
	writeJSON(w, status, taskResponse{Message: msg, Task: task})
}

func (s *Server) writeTasks(w http.ResponseWriter, keep func(*tasks.Task) bool) {
	list, err := s.repos.Tasks.List(keep)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tasks")
		writeMessage(w, http.StatusInternalServerError, "Could not list tasks")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func validateTask(title, dueDate string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required"
	}
	if dueDate != "" {
		if _, err := time.Parse(dueDateLayout, dueDate); err != nil {
			return "Due date must be YYYY-MM-DD"
		}
	}
	return ""
}

func userRef(u *users.User) *tasks.UserRef {
	return &tasks.UserRef{ID: u.ID, Username: u.Username, Email: u.Email}
}
