package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"":        RoleUser,
		"user":    RoleUser,
		" USER ":  RoleUser,
		"admin":   RoleAdmin,
		"Admin":   RoleAdmin,
		"ADMIN\t": RoleAdmin,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseRole_Rejects(t *testing.T) {
	_, err := ParseRole("ROOT")
	var bad *ErrInvalidRole
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "ROOT", bad.Value)
	assert.Contains(t, err.Error(), "USER or ADMIN")
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("user").Valid())
}

func TestUser_IsAdminAndRoles(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())

	u := &User{Username: "alice", Role: RoleUser}
	assert.False(t, u.IsAdmin())
	assert.Equal(t, []string{"USER"}, u.Roles())

	u.Role = RoleAdmin
	assert.True(t, u.IsAdmin())
	assert.Equal(t, []string{"ADMIN"}, u.Roles())
}
