package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the role a user holds in the task system
type RoleType string

const (
	RoleUser  RoleType = "user"  // Manages their own tasks and responds to assignments
	RoleAdmin RoleType = "admin" // Manages users and assigns tasks to them
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string    `json:"_id,omitempty"`       // Unique identifier for the user
	Username     string    `json:"username,omitempty"`  // Display name
	Email        string    `json:"email,omitempty"`     // User's email address, unique
	Role         RoleType  `json:"role,omitempty"`      // user or admin
	PasswordHash string    `json:"-"`                   // Hashed version of the user's password - never serialize
	CreatedAt    time.Time `json:"createdAt,omitempty"` // When the account was created
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Input is the body for creating or updating a user. Empty fields are left
// unchanged on update.
type Input struct {
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Password string   `json:"password,omitempty"`
	Role     RoleType `json:"role,omitempty"`
}

// Page is one page of the admin user listing
type Page struct {
	Users       []*User `json:"users"`
	TotalUsers  int     `json:"totalUsers"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
