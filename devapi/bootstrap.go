package devapi

import (
	"fmt"

	"github.com/jrsteele09/go-task-client/users"
)

const DefaultAdminUsername = "admin"

// InitialiseSystem creates the configured admin account when no user holds
// its email yet
func (s *Server) InitialiseSystem() error {
	email := s.config.GetAdminEmail()
	if email == "" {
		return nil
	}
	if _, err := s.repos.Users.GetByEmail(email); err == nil {
		s.logger.Debug().Str("email", email).Msg("bootstrap: admin already exists")
		return nil
	}

	user, status, msg := s.createUser(users.Input{
		Username: DefaultAdminUsername,
		Email:    email,
		Password: s.config.GetAdminPassword(),
		Role:     users.RoleAdmin,
	})
	if user == nil {
		return fmt.Errorf("failed to bootstrap admin (%d): %s", status, msg)
	}
	s.logger.Info().Str("email", user.Email).Str("user_id", user.ID).Msg("bootstrap: admin user created")
	return nil
}
