package devapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-task-client/token"
	"github.com/jrsteele09/go-task-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access token claims
const ContextKeyClaims ContextKey = "claims"

// RequireAuth validates the Bearer access token and stores its claims in the
// request context
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			claims, err := s.tokens.Verify(raw)
			if err != nil {
				msg := "Token is not valid"
				if errors.Is(err, token.ErrTokenExpired) {
					msg = "Token expired"
				}
				writeMessage(w, http.StatusUnauthorized, msg)
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims)))
		}
	}
}

// RequireAdmin rejects callers without the admin role. Chain it after
// RequireAuth.
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFrom(r)
			if !ok || claims.Role != users.RoleAdmin {
				writeMessage(w, http.StatusForbidden, "Admin access required")
				return
			}
			next(w, r)
		}
	}
}

func claimsFrom(r *http.Request) (*token.Claims, bool) {
	c, ok := r.Context().Value(ContextKeyClaims).(*token.Claims)
	return c, ok
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
