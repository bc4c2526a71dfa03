package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/game-catalog/internal/logging"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/queue"
	"github.com/iliyamo/game-catalog/internal/repository/memstore"
	"github.com/iliyamo/game-catalog/internal/utils"
)

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type env struct {
	store   *memstore.Store
	events  *recorder
	hasher  *utils.PasswordHasher
	codec   *utils.TokenCodec
	auth    *AuthService
	users   *UserService
	profile *ProfileService
	library *LibraryService
	catalog *CatalogService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	rec := &recorder{}
	d := Deps{Stores: store.Stores(), Tx: store, Events: rec, Log: logging.Discard(), Now: func() time.Time { return testNow }}

	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	codec, err := utils.NewTokenCodec(secret, time.Hour)
	require.NoError(t, err)
	codec = codec.WithClock(func() time.Time { return testNow })

	auth, err := NewAuthService(d, hasher, codec)
	require.NoError(t, err)
	return &env{
		store: store, events: rec, hasher: hasher, codec: codec,
		auth:    auth,
		users:   NewUserService(d, hasher),
		profile: NewProfileService(d),
		library: NewLibraryService(d),
		catalog: NewCatalogService(d),
	}
}

func (e *env) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), nil, RegisterInput{
		Username: username, Email: username + "@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	return u
}

func (e *env) admin(t *testing.T) *model.User {
	t.Helper()
	_, err := e.auth.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpass1")
	require.NoError(t, err)
	u, err := e.store.Stores().Users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	return u
}
