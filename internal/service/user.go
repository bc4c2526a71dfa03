package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/queue"
	"github.com/iliyamo/game-catalog/internal/repository"
	"github.com/iliyamo/game-catalog/internal/utils"
)

// UpdateUserInput carries the fields of an account update. Empty strings
// leave the stored value unchanged.
type UpdateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// UserService manages accounts after registration.
type UserService struct {
	Deps
	hasher *utils.PasswordHasher
}

// NewUserService returns a UserService hashing new passwords with hasher.
func NewUserService(d Deps, hasher *utils.PasswordHasher) *UserService {
	return &UserService{Deps: d.withDefaults(), hasher: hasher}
}

// Get returns the account with the given id to its owner or an admin.
func (s *UserService) Get(ctx context.Context, actor *model.User, id uint64) (*model.User, error) {
	if err := authz.SelfOrAdmin(actor, id); err != nil {
		return nil, err
	}
	u, err := s.Stores.Users.GetByID(ctx, id)
	return u, notFound(err, ErrUserNotFound)
}

// List pages through every account. Admin only.
func (s *UserService) List(ctx context.Context, actor *model.User, p Page) ([]*model.User, error) {
	if err := authz.AdminOnly(actor); err != nil {
		return nil, err
	}
	return s.Stores.Users.List(ctx, p.Limit(), p.Offset())
}

// Update changes an account. Owners may change their email and password;
// username and role changes need an admin.
func (s *UserService) Update(ctx context.Context, actor *model.User, id uint64, in UpdateUserInput) (*model.User, error) {
	if err := authz.SelfOrAdmin(actor, id); err != nil {
		return nil, err
	}
	u, err := s.Stores.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	var v validator
	var role model.Role
	if in.Username != "" {
		v.username(in.Username)
	}
	if in.Email != "" {
		v.email(in.Email)
	}
	if in.Password != "" {
		v.password(in.Password)
	}
	if strings.TrimSpace(in.Role) != "" {
		if role, err = model.ParseRole(in.Role); err != nil {
			v.add("role", "must be USER or ADMIN")
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if in.Username != "" && in.Username != u.Username {
			return nil, authz.Deny(authz.PolicyAdminOnly, "only administrators may change a username")
		}
		if role != "" && role != u.Role {
			return nil, authz.Deny(authz.PolicyAdminOnly, "only administrators may change a role")
		}
	}

	if in.Username != "" {
		u.Username = in.Username
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if role != "" {
		u.Role = role
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.Stores.Users.Update(ctx, u); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// Delete removes an account together with its library entries and profile,
// in that order, inside one transaction.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id uint64) error {
	if err := authz.SelfOrAdmin(actor, id); err != nil {
		return err
	}
	var username string
	err := s.Tx.InTx(ctx, func(ctx context.Context, st repository.Stores) error {
		u, err := st.Users.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		username = u.Username
		if err := st.Library.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := st.Profiles.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return notFound(st.Users.DeleteByID(ctx, id), ErrUserNotFound)
	})
	if err != nil {
		return err
	}

	ev := queue.NewEvent(queue.EventUserDeleted, s.Now())
	ev.UserID, ev.Username, ev.ActorID = id, username, actor.ID
	s.publish(ctx, ev)
	s.Log.WithFields(logrus.Fields{"user_id": id, "actor_id": actor.ID}).Info("user deleted")
	return nil
}
