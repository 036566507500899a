package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"commerce-service/internal/domain"
)

func TestAuthorize(t *testing.T) {
	admin := Caller{ID: 2, Roles: []domain.Role{domain.RoleClient, domain.RoleAdmin}}
	client := Caller{ID: 1, Roles: []domain.Role{domain.RoleClient}}

	tests := []struct {
		name    string
		ownerID int64
		caller  Caller
		wantErr error
	}{
		{name: "owner", ownerID: 1, caller: client},
		{name: "admin on someone else's resource", ownerID: 1, caller: admin},
		{name: "admin on own resource", ownerID: 2, caller: admin},
		{name: "client on someone else's resource", ownerID: 2, caller: client, wantErr: ErrForbidden},
		{name: "anonymous", ownerID: 1, caller: Caller{}, wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.ownerID, tt.caller)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(Caller{ID: 2, Roles: []domain.Role{domain.RoleAdmin}}))
	assert.ErrorIs(t, RequireAdmin(Caller{ID: 1, Roles: []domain.Role{domain.RoleClient}}), ErrForbidden)
	assert.ErrorIs(t, RequireAdmin(Caller{}), ErrForbidden)
}

func TestRequireAnyRole(t *testing.T) {
	client := Caller{ID: 1, Roles: []domain.Role{domain.RoleClient}}

	assert.NoError(t, RequireAnyRole(client, domain.RoleAdmin, domain.RoleClient))
	assert.ErrorIs(t, RequireAnyRole(client, domain.RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, RequireAnyRole(Caller{ID: 3}, domain.RoleAdmin, domain.RoleClient), ErrForbidden)
}

func TestCallerFromUser_CopiesRoles(t *testing.T) {
	user := &domain.User{ID: 7, Roles: []domain.Role{domain.RoleClient}}
	caller := CallerFromUser(user)
	user.Roles[0] = domain.RoleAdmin

	assert.Equal(t, int64(7), caller.ID)
	assert.False(t, caller.IsAdmin(), "caller roles must not alias the user's slice")
}
