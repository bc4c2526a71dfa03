// Package authz holds the authorization decisions shared by every protected
// operation and the per-request identity binding they read from.
//
// Two predicates exist. SelfOrAdmin permits an action on a resource owned by
// ownerID when the actor is that owner or an ADMIN. AdminOnly permits an
// action only for ADMIN actors. A nil actor (anonymous request) never
// satisfies either and yields ErrUnauthenticated, so callers can answer 401
// instead of 403.
package authz

import (
	"errors"

	"github.com/iliyamo/game-catalog/internal/model"
)

// ErrUnauthenticated means no identity is bound to the request.
var ErrUnauthenticated = errors.New("authentication required")

// ErrAccessDenied matches every *AccessDeniedError via errors.Is.
var ErrAccessDenied = errors.New("access denied")

// Policy names the rule that rejected a request.
type Policy string

const (
	PolicySelfOrAdmin Policy = "self-or-admin"
	PolicyAdminOnly   Policy = "admin-only"
	PolicyRole        Policy = "role"
)

// AccessDeniedError is returned when an authenticated actor lacks the role or
// ownership an action requires.
type AccessDeniedError struct {
	Policy Policy
	Reason string
}

func (e *AccessDeniedError) Error() string { return "access denied: " + e.Reason }

func (e *AccessDeniedError) Is(target error) bool { return target == ErrAccessDenied }

// Deny builds an AccessDeniedError.
func Deny(p Policy, reason string) error {
	return &AccessDeniedError{Policy: p, Reason: reason}
}

// SelfOrAdmin permits actor to act on a resource owned by ownerID.
func SelfOrAdmin(actor *model.User, ownerID uint64) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.ID == ownerID || actor.IsAdmin() {
		return nil
	}
	return Deny(PolicySelfOrAdmin, "you can only access your own resources unless you are an administrator")
}

// AdminOnly permits only ADMIN actors.
func AdminOnly(actor *model.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	return Deny(PolicyAdminOnly, "this operation requires the ADMIN role")
}
