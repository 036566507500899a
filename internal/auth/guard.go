// Package auth resolves callers and answers the owner-or-admin question.
package auth

import (
	"errors"
	"slices"

	"commerce-service/internal/domain"
)

var (
	ErrUnauthenticated = errors.New("auth: full authentication is required")
	ErrForbidden       = errors.New("auth: access denied")
)

// Caller is the authenticated principal a workflow call runs on behalf of.
type Caller struct {
	ID    int64
	Roles []domain.Role
}

// CallerFromUser builds the caller for an authenticated user.
func CallerFromUser(u *domain.User) Caller {
	return Caller{ID: u.ID, Roles: slices.Clone(u.Roles)}
}

func (c Caller) HasRole(role domain.Role) bool {
	return slices.Contains(c.Roles, role)
}

func (c Caller) IsAdmin() bool {
	return c.HasRole(domain.RoleAdmin)
}

// Authorize permits access to a resource owned by ownerID iff the caller is
// an admin or is the owner.
func Authorize(ownerID int64, caller Caller) error {
	if caller.IsAdmin() || caller.ID == ownerID {
		return nil
	}
	return ErrForbidden
}

// RequireAdmin fails with ErrForbidden unless the caller is an admin.
func RequireAdmin(caller Caller) error {
	if caller.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// RequireAnyRole fails with ErrForbidden unless the caller holds one of roles.
func RequireAnyRole(caller Caller, roles ...domain.Role) error {
	for _, role := range roles {
		if caller.HasRole(role) {
			return nil
		}
	}
	return ErrForbidden
}
