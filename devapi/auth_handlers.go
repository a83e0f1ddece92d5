package devapi

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jrsteele09/go-task-client/users"
)

const (
	// refreshCookieName is the HTTP-only cookie carrying the refresh token
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"

	minPasswordLength = 8
)

// identity is the user summary returned with every access token
type identity struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Role     users.RoleType `json:"role"`
}

type tokenResponse struct {
	Message     string   `json:"message,omitempty"`
	AccessToken string   `json:"accessToken"`
	User        identity `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func identityOf(u *users.User) identity {
	return identity{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in users.Input
		if !decodeBody(w, r, &in) {
			return
		}
		in.Role = users.RoleUser

		user, status, msg := s.createUser(in)
		if user == nil {
			writeMessage(w, status, msg)
			return
		}
		writeMessage(w, http.StatusCreated, "User registered successfully")
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in loginRequest
		if !decodeBody(w, r, &in) {
			return
		}

		user, err := s.repos.Users.GetByEmail(strings.ToLower(strings.TrimSpace(in.Email)))
		if err != nil || !users.CheckPasswordHash(in.Password, user.PasswordHash) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		refreshToken, err := s.refresh.Create(user.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to create refresh token")
			writeMessage(w, http.StatusInternalServerError, "Login failed")
			return
		}
		s.issueAccessToken(w, r, user, refreshToken, "Login successful")
	}
}

// RefreshHandler exchanges the refresh cookie for a new access token and
// rotates the cookie. The old refresh token is dead afterwards.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		if err != nil || cookie.Value == "" {
			writeMessage(w, http.StatusUnauthorized, "No refresh token")
			return
		}

		newToken, userID, err := s.refresh.Rotate(cookie.Value)
		if err != nil {
			s.clearRefreshCookie(w, r)
			writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}

		user, err := s.repos.Users.GetByID(userID)
		if err != nil {
			_ = s.refresh.Delete(newToken)
			s.clearRefreshCookie(w, r)
			writeMessage(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		s.issueAccessToken(w, r, user, newToken, "")
	}
}

// LogoutHandler drops the refresh token and, when a valid access token is
// presented, revokes it too. It always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
			_ = s.refresh.Delete(cookie.Value)
		}
		if raw, ok := bearerToken(r); ok {
			if claims, err := s.tokens.Verify(raw); err == nil {
				_ = s.tokens.Revoke(claims)
			}
		}
		s.clearRefreshCookie(w, r)
		writeMessage(w, http.StatusOK, "Logged out successfully")
	}
}

func (s *Server) issueAccessToken(w http.ResponseWriter, r *http.Request, user *users.User, refreshToken, msg string) {
	accessToken, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to sign access token")
		writeMessage(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	s.setRefreshCookie(w, r, refreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{Message: msg, AccessToken: accessToken, User: identityOf(user)})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.refresh.Expiry().Seconds()),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// validateUserInput checks the fields of in that are set. With full, the
// username, email and password are all required.
func validateUserInput(in users.Input, full bool) string {
	if full && (in.Username == "" || in.Email == "" || in.Password == "") {
		return "Username, email and password are required"
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return "Invalid email address"
		}
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return "Password must be at least 8 characters"
	}
	if in.Role != "" && !in.Role.Valid() {
		return "Role must be user or admin"
	}
	return ""
}

// createUser validates and stores a new user, returning the HTTP status and
// message to send when it fails
func (s *Server) createUser(in users.Input) (*users.User, int, string) {
	if msg := validateUserInput(in, true); msg != "" {
		return nil, http.StatusBadRequest, msg
	}
	if in.Role == "" {
		in.Role = users.RoleUser
	}

	hash, err := users.HashPassword(in.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, http.StatusInternalServerError, "Could not create user"
	}

	user := &users.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    s.nowFunc(),
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, http.StatusConflict, "Email already registered"
		}
		s.logger.Error().Err(err).Msg("failed to store user")
		return nil, http.StatusInternalServerError, "Could not create user"
	}
	return user, http.StatusCreated, ""
}
