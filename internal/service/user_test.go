package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/queue"
	"github.com/iliyamo/game-catalog/internal/repository"
)

func TestUserUpdate_SelfOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	root := e.admin(t)

	in := UpdateUserInput{Username: "alice", Email: "a@b.com", Password: "newpass1"}

	u, err := e.users.Update(ctx, alice, alice.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.True(t, e.hasher.Verify(u.PasswordHash, "newpass1"))

	_, err = e.users.Update(ctx, bob, alice.ID, in)
	var denied *authz.AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, authz.PolicySelfOrAdmin, denied.Policy)

	_, err = e.users.Update(ctx, nil, alice.ID, in)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	u, err = e.users.Update(ctx, root, alice.ID, UpdateUserInput{Email: "alice@new.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.com", u.Email)
}

func TestUserUpdate_SelfCannotChangeUsernameOrRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	_, err := e.users.Update(ctx, alice, alice.ID, UpdateUserInput{Username: "alicia"})
	assert.ErrorIs(t, err, authz.ErrAccessDenied)

	_, err = e.users.Update(ctx, alice, alice.ID, UpdateUserInput{Role: "ADMIN"})
	assert.ErrorIs(t, err, authz.ErrAccessDenied)

	u, err := e.users.Update(ctx, alice, alice.ID, UpdateUserInput{Role: "USER"})
	require.NoError(t, err, "restating the current role is not a change")
	assert.Equal(t, model.RoleUser, u.Role)

	stored, err := e.store.Stores().Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
}

func TestUserUpdate_AdminChangesAnything(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	e.register(t, "bob")
	root := e.admin(t)

	u, err := e.users.Update(ctx, root, alice.ID, UpdateUserInput{Username: "alicia", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "alicia", u.Username)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = e.users.Update(ctx, root, alice.ID, UpdateUserInput{Username: "bob"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)

	_, err = e.users.Update(ctx, root, 999, UpdateUserInput{Email: "x@y.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserGetAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	root := e.admin(t)

	u, err := e.users.Get(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = e.users.Get(ctx, bob, alice.ID)
	assert.ErrorIs(t, err, authz.ErrAccessDenied)

	_, err = e.users.List(ctx, alice, Page{Size: 10})
	assert.ErrorIs(t, err, authz.ErrAccessDenied)

	all, err := e.users.List(ctx, root, Page{Size: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	rest, err := e.users.List(ctx, root, Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestUserDelete_Cascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	root := e.admin(t)

	g, err := e.catalog.CreateGame(ctx, root, GameInput{Title: "Doom"})
	require.NoError(t, err)
	_, err = e.library.Add(ctx, alice, alice.ID, g.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, e.users.Delete(ctx, bob, alice.ID), authz.ErrAccessDenied)

	require.NoError(t, e.users.Delete(ctx, alice, alice.ID))

	st := e.store.Stores()
	_, err = st.Users.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = st.Profiles.GetByUserID(ctx, alice.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	entries, err := st.Library.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Contains(t, e.events.types(), queue.EventUserDeleted)
	assert.ErrorIs(t, e.users.Delete(ctx, root, alice.ID), ErrUserNotFound)

	// the game itself survives and is deletable now that nobody owns it
	assert.NoError(t, e.catalog.DeleteGame(ctx, root, g.ID))
}
