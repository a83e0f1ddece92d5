package devapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
)

const defaultPageSize = 10

type userResponse struct {
	Message string      `json:"message"`
	User    *users.User `json:"user"`
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) UpdateMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		var in users.Input
		if !decodeBody(w, r, &in) {
			return
		}
		in.Role = "" // users cannot promote themselves
		s.applyUserUpdate(w, user, in, "Profile updated successfully")
	}
}

func (s *Server) DeleteMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		s.deleteUser(w, user.ID, "Account deleted successfully")
	}
}

// ListUsersHandler pages through users ordered by creation time
func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := positiveQueryInt(r, "page", 1)
		limit := positiveQueryInt(r, "limit", defaultPageSize)

		list, total, err := s.repos.Users.List((page-1)*limit, limit)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to list users")
			writeMessage(w, http.StatusInternalServerError, "Could not list users")
			return
		}
		writeJSON(w, http.StatusOK, users.Page{
			Users:       list,
			TotalUsers:  total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
		})
	}
}

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in users.Input
		if !decodeBody(w, r, &in) {
			return
		}
		user, status, msg := s.createUser(in)
		if user == nil {
			writeMessage(w, status, msg)
			return
		}
		writeJSON(w, http.StatusCreated, userResponse{Message: "User created successfully", User: user})
	}
}

func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(r.PathValue("id"))
		if err != nil {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		var in users.Input
		if !decodeBody(w, r, &in) {
			return
		}
		s.applyUserUpdate(w, user, in, "User updated successfully")
	}
}

func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if claims, _ := claimsFrom(r); claims != nil && claims.UserID == id {
			writeMessage(w, http.StatusBadRequest, "Use /api/users/me to delete your own account")
			return
		}
		s.deleteUser(w, id, "User deleted successfully")
	}
}

// currentUser loads the user the access token was issued to
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return nil, false
	}
	user, err := s.repos.Users.GetByID(claims.UserID)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return user, true
}

func (s *Server) applyUserUpdate(w http.ResponseWriter, user *users.User, in users.Input, msg string) {
	if m := validateUserInput(in, false); m != "" {
		writeMessage(w, http.StatusBadRequest, m)
		return
	}
	if in.Username != "" {
		user.Username = strings.TrimSpace(in.Username)
	}
	if in.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.Role != "" {
		user.Role = in.Role
	}
	if in.Password != "" {
		hash, err := users.HashPassword(in.Password)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Could not update user")
			return
		}
		user.PasswordHash = hash
	}

	if err := s.repos.Users.Upsert(user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			writeMessage(w, http.StatusConflict, "Email already registered")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Could not update user")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: msg, User: user})
}

// deleteUser removes the user together with their tasks and refresh token
func (s *Server) deleteUser(w http.ResponseWriter, id, msg string) {
	if err := s.repos.Users.Delete(id); err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	owned, _ := s.repos.Tasks.List(func(t *tasks.Task) bool { return t.Owner == id })
	for _, t := range owned {
		_ = s.repos.Tasks.Delete(t.ID)
	}
	if err := s.refresh.DeleteForUser(id); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("failed to drop refresh token of deleted user")
	}
	writeMessage(w, http.StatusOK, msg)
}

func positiveQueryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
