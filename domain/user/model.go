// Package user provides user account value types and pure functions.
// This package has NO dependencies on I/O or external packages.
package user

import (
	"strings"
	"time"
)

// Role represents a capability grant on an account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// IsValid returns true if the role is a known valid role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInvited   AccountStatus = "invited"
	StatusSuspended AccountStatus = "suspended"
)

// IsValid returns true if the status is a known valid status.
func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInvited, StatusSuspended:
		return true
	}
	return false
}

// Theme is the rendering preference carried on an account.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// IsValid returns true if the theme is a known valid theme.
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// Preferences holds per-account settings.
type Preferences struct {
	Theme       Theme      `json:"theme"`
	Timezone    string     `json:"timezone,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// User represents a user account (immutable value type).
type User struct {
	ID          uint64        `json:"id"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	CreatedAt   time.Time     `json:"created_at"`
	Roles       []Role        `json:"roles"`
	Status      AccountStatus `json:"status"`
	Active      bool          `json:"active"`
	Preferences *Preferences  `json:"preferences,omitempty"`
}

// HasRole reports whether the user carries the given role.
// This is a PURE function.
func (u User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// CreateUserRequest carries the fields a caller may set on account creation.
// Shape checks happen at the dispatch boundary; the validate tags cover the
// semantic rules a shape check cannot express.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Roles    []Role `json:"roles,omitempty"`
	Timezone string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// GetUserRequest addresses a single account by ID.
type GetUserRequest struct {
	ID uint64 `json:"id"`
}

// ListUsersParams pages through accounts.
type ListUsersParams struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultRoles returns the role set granted when a request names none.
func DefaultRoles() []Role {
	return []Role{RoleViewer}
}

// NormalizeUsername trims surrounding whitespace. Uniqueness comparisons
// additionally fold case, but the stored username keeps the caller's casing.
func NormalizeUsername(name string) string {
	return strings.TrimSpace(name)
}

// DedupeRoles drops repeated roles, keeping first occurrence order.
// This is a PURE function.
func DedupeRoles(roles []Role) []Role {
	out := make([]Role, 0, len(roles))
	seen := map[Role]bool{}
	for _, r := range roles {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
