package models

import "time"

// Role names. The permission matrix lives in internal/permissions.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleWaiter  = "waiter"
	RoleChef    = "chef"
	RoleBarman  = "barman"
)

// IsValidRole checks if the provided role is known.
func IsValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleManager, RoleWaiter, RoleChef, RoleBarman:
		return true
	default:
		return false
	}
}

// IsPrivilegedRole reports whether the role may change other users' roles.
func IsPrivilegedRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

// User represents a user in the system
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	Email        *string   `json:"email,omitempty" db:"email"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated caller as seen by the service layer.
type Actor struct {
	UserID   string
	Username string
	Role     string
}
