package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/queue"
	"github.com/iliyamo/game-catalog/internal/repository"
	"github.com/iliyamo/game-catalog/internal/utils"
)

// RegisterInput is the payload of a registration. Role is optional and only
// an ADMIN actor may set it to ADMIN.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService holds registration and the Authenticator.
type AuthService struct {
	Deps
	hasher *utils.PasswordHasher
	codec  *utils.TokenCodec

	// dummyHash is verified against when the username is unknown so that
	// both failure paths cost one bcrypt comparison.
	dummyHash string
}

// NewAuthService prepares the dummy hash used for unknown usernames.
func NewAuthService(d Deps, hasher *utils.PasswordHasher, codec *utils.TokenCodec) (*AuthService, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{Deps: d.withDefaults(), hasher: hasher, codec: codec, dummyHash: dummy}, nil
}

// Register creates a USER account (or ADMIN, when an admin asks for it)
// together with its empty profile.
func (s *AuthService) Register(ctx context.Context, actor *model.User, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	var v validator
	v.username(in.Username)
	v.email(in.Email)
	v.password(in.Password)
	role, err := model.ParseRole(in.Role)
	if err != nil {
		v.add("role", "must be USER or ADMIN")
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if role == model.RoleAdmin {
		if err := authz.AdminOnly(actor); err != nil {
			if errors.Is(err, authz.ErrUnauthenticated) {
				return nil, authz.Deny(authz.PolicyAdminOnly, "only administrators may create ADMIN accounts")
			}
			return nil, err
		}
	}

	// Early checks give field-specific answers in the common case; the
	// unique indexes still catch concurrent registrations.
	taken, err := s.Stores.Users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrDuplicateUsername
	}
	taken, err = s.Stores.Users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: in.Username, Email: in.Email, PasswordHash: hash, Role: role}
	if err := s.createWithProfile(ctx, u); err != nil {
		return nil, err
	}

	ev := queue.NewEvent(queue.EventUserRegistered, s.Now())
	ev.UserID, ev.Username = u.ID, u.Username
	if actor != nil {
		ev.ActorID = actor.ID
	}
	s.publish(ctx, ev)
	return u, nil
}

func (s *AuthService) createWithProfile(ctx context.Context, u *model.User) error {
	return s.Tx.InTx(ctx, func(ctx context.Context, st repository.Stores) error {
		if err := st.Users.Create(ctx, u); err != nil {
			return err
		}
		return st.Profiles.CreateEmpty(ctx, u.ID)
	})
}

// Authenticate checks a username/password pair. Every credential failure is
// ErrInvalidCredentials; only store failures come back as something else.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.Stores.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and issues an access token for the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	tok, exp, err := s.codec.IssueFor(u.Username, u.Roles())
	if err != nil {
		return nil, err
	}
	s.Log.WithField("user_id", u.ID).Info("login succeeded")
	return &LoginResult{User: u, Token: tok, ExpiresAt: exp}, nil
}

// EnsureAdmin makes sure an ADMIN account named username exists. An existing
// account is promoted; otherwise a new one is created with a profile. It
// reports whether anything changed.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	u, err := s.Stores.Users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if u.IsAdmin() {
			return false, nil
		}
		u.Role = model.RoleAdmin
		if err := s.Stores.Users.Update(ctx, u); err != nil {
			return false, err
		}
		s.Log.WithField("username", username).Info("promoted bootstrap admin")
		return true, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, err
	}

	var v validator
	v.username(username)
	v.email(email)
	v.password(password)
	if err := v.err(); err != nil {
		return false, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	u = &model.User{Username: username, Email: email, PasswordHash: hash, Role: model.RoleAdmin}
	if err := s.createWithProfile(ctx, u); err != nil {
		return false, err
	}
	s.Log.WithField("username", username).Info("created bootstrap admin")
	return true, nil
}
