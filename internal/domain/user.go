package domain

import "time"

// Role represents a user role (matches DB ENUM)
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleContributor Role = "contributor"
	RoleSubscriber  Role = "subscriber"
)

// Valid reports whether the role belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleContributor, RoleSubscriber:
		return true
	}
	return false
}

// Capability predicates. Authorization decisions at the service boundary go
// through these rather than comparing role strings inline.

// CanManageUsers reports whether the role may list, pause, or delete users.
func (r Role) CanManageUsers() bool { return r == RoleAdmin }

// CanManageTracking reports whether the role may manage tracking snippets.
func (r Role) CanManageTracking() bool { return r == RoleAdmin }

// CanManageCategories reports whether the role may manage categories.
func (r Role) CanManageCategories() bool { return r == RoleAdmin }

// CanPublishBooks reports whether the role may create and manage book listings.
func (r Role) CanPublishBooks() bool { return r == RoleAdmin || r == RoleContributor }

// UserStatus represents the account status of a user
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusPaused UserStatus = "paused"
)

// Valid reports whether the status is a known account status.
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusPaused
}

// User represents a registered account. PasswordHash and the reset token
// fields never leave the process boundary.
type User struct {
	ID               string     `json:"id"`
	FullName         string     `json:"full_name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Role             Role       `json:"role"`
	Status           UserStatus `json:"user_status"`
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Claims is the identity carried by a verified session token.
type Claims struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the claims belong to the admin identity.
func (c *Claims) IsAdmin() bool { return c.Role == RoleAdmin }
