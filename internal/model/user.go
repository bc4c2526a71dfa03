package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of authorities a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ErrInvalidRole is returned by ParseRole for anything outside the enum.
type ErrInvalidRole struct {
	Value string
}

func (e *ErrInvalidRole) Error() string {
	return fmt.Sprintf("invalid role %q: must be USER or ADMIN", e.Value)
}

// ParseRole converts user input into a Role. Matching is case-insensitive and
// ignores surrounding whitespace; an empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(RoleUser):
		return RoleUser, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	}
	return "", &ErrInvalidRole{Value: s}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

func (r Role) String() string { return string(r) }

// User mirrors the `users` table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name (3–50 chars).
//	Email        – unique email address (≤100 chars).
//	PasswordHash – bcrypt hash; the plaintext is never stored.
//	Role         – USER or ADMIN.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Roles returns the role list embedded into access tokens.
func (u *User) Roles() []string { return []string{u.Role.String()} }
