// Package memstore is an in-memory implementation of the repository stores.
// It mirrors the MySQL repositories' error contract (ErrNotFound,
// ErrDuplicate*, ErrConflict) and is used by service, handler and router
// tests. InTx restores a snapshot when fn fails, which gives all-or-nothing
// semantics for a single caller; it does not isolate concurrent callers.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/repository"
)

type libKey struct{ user, game uint64 }

type state struct {
	nextUser, nextGame, nextTag uint64

	users    map[uint64]model.User
	profiles map[uint64]model.Profile
	games    map[uint64]model.Game
	tags     map[uint64]model.Tag
	gameTags map[uint64]map[uint64]bool
	library  map[libKey]model.LibraryEntry
}

func (s *state) clone() *state {
	cp := &state{
		nextUser: s.nextUser, nextGame: s.nextGame, nextTag: s.nextTag,
		users:    make(map[uint64]model.User, len(s.users)),
		profiles: make(map[uint64]model.Profile, len(s.profiles)),
		games:    make(map[uint64]model.Game, len(s.games)),
		tags:     make(map[uint64]model.Tag, len(s.tags)),
		gameTags: make(map[uint64]map[uint64]bool, len(s.gameTags)),
		library:  make(map[libKey]model.LibraryEntry, len(s.library)),
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	for k, v := range s.profiles {
		cp.profiles[k] = v
	}
	for k, v := range s.games {
		cp.games[k] = v
	}
	for k, v := range s.tags {
		cp.tags[k] = v
	}
	for k, v := range s.gameTags {
		m := make(map[uint64]bool, len(v))
		for t := range v {
			m[t] = true
		}
		cp.gameTags[k] = m
	}
	for k, v := range s.library {
		cp.library[k] = v
	}
	return cp
}

// Store holds all tables behind one mutex.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		st: &state{
			users:    map[uint64]model.User{},
			profiles: map[uint64]model.Profile{},
			games:    map[uint64]model.Game{},
			tags:     map[uint64]model.Tag{},
			gameTags: map[uint64]map[uint64]bool{},
			library:  map[libKey]model.LibraryEntry{},
		},
		now: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Stores returns the store handles.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{
		Users:    users{s},
		Profiles: profiles{s},
		Library:  library{s},
		Games:    games{s},
		Tags:     tags{s},
	}
}

// InTx implements repository.Transactor.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, st repository.Stores) error) error {
	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()

	if err := fn(ctx, s.Stores()); err != nil {
		s.mu.Lock()
		s.st = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

// ---- users ----

type users struct{ s *Store }

func (r users) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.st.users {
		if x.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
		if x.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.s.st.nextUser++
	u.ID = r.s.st.nextUser
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.st.users[u.ID] = *u
	return nil
}

func (r users) find(match func(model.User) bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.st.users {
		if match(x) {
			u := x
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r users) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.st.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, x := range r.s.st.users {
		if id == u.ID {
			continue
		}
		if x.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
		if x.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = r.s.now()
	r.s.st.users[u.ID] = *u
	return nil
}

func (r users) DeleteByID(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[id]; !ok {
		return repository.ErrNotFound
	}
	// Same behaviour as the foreign keys on profiles and user_games.
	if _, ok := r.s.st.profiles[id]; ok {
		return repository.ErrConflict
	}
	for k := range r.s.st.library {
		if k.user == id {
			return repository.ErrConflict
		}
	}
	delete(r.s.st.users, id)
	return nil
}

func (r users) List(_ context.Context, limit, offset int) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*model.User, 0, len(r.s.st.users))
	for _, x := range r.s.st.users {
		u := x
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

// ---- profiles ----

type profiles struct{ s *Store }

func (r profiles) CreateEmpty(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.st.profiles[userID]; !ok {
		r.s.st.profiles[userID] = model.Profile{UserID: userID, UpdatedAt: r.s.now()}
	}
	return nil
}

func (r profiles) GetByUserID(_ context.Context, userID uint64) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r profiles) Upsert(_ context.Context, p *model.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[p.UserID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = r.s.now()
	r.s.st.profiles[p.UserID] = *p
	return nil
}

func (r profiles) DeleteByUser(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.st.profiles, userID)
	return nil
}

// ---- library ----

type library struct{ s *Store }

func (r library) Add(ctx context.Context, userID, gameID uint64) (*model.LibraryEntry, error) {
	r.s.mu.Lock()
	_, userOK := r.s.st.users[userID]
	_, gameOK := r.s.st.games[gameID]
	if !userOK || !gameOK {
		r.s.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	k := libKey{userID, gameID}
	if _, ok := r.s.st.library[k]; ok {
		r.s.mu.Unlock()
		return nil, repository.ErrAlreadyOwned
	}
	r.s.st.library[k] = model.LibraryEntry{UserID: userID, GameID: gameID, PurchasedAt: r.s.now()}
	r.s.mu.Unlock()
	return r.Get(ctx, userID, gameID)
}

func (r library) Get(_ context.Context, userID, gameID uint64) (*model.LibraryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.st.library[libKey{userID, gameID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e.GameTitle = r.s.st.games[gameID].Title
	return &e, nil
}

func (r library) ListByUser(_ context.Context, userID uint64) ([]*model.LibraryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.LibraryEntry{}
	for k, v := range r.s.st.library {
		if k.user == userID {
			e := v
			e.GameTitle = r.s.st.games[k.game].Title
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.After(out[j].PurchasedAt)
		}
		return out[i].GameID < out[j].GameID
	})
	return out, nil
}

func (r library) UpdatePlaytime(_ context.Context, userID, gameID uint64, minutes uint32, lastPlayed *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := libKey{userID, gameID}
	e, ok := r.s.st.library[k]
	if !ok {
		return repository.ErrNotFound
	}
	e.PlaytimeMinutes = minutes
	if lastPlayed != nil {
		t := *lastPlayed
		e.LastPlayedAt = &t
	}
	r.s.st.library[k] = e
	return nil
}

func (r library) Remove(_ context.Context, userID, gameID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := libKey{userID, gameID}
	if _, ok := r.s.st.library[k]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.st.library, k)
	return nil
}

func (r library) DeleteByUser(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k := range r.s.st.library {
		if k.user == userID {
			delete(r.s.st.library, k)
		}
	}
	return nil
}

// ---- games ----

type games struct{ s *Store }

func (r games) Create(_ context.Context, g *model.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.st.games {
		if x.Title == g.Title {
			return repository.ErrDuplicateTitle
		}
	}
	r.s.st.nextGame++
	g.ID = r.s.st.nextGame
	g.CreatedAt = r.s.now()
	g.UpdatedAt = g.CreatedAt
	stored := *g
	stored.Tags = nil
	r.s.st.games[g.ID] = stored
	return nil
}

// withTags must be called with the lock held.
func (r games) withTags(g model.Game) *model.Game {
	g.Tags = []model.Tag{}
	for tagID := range r.s.st.gameTags[g.ID] {
		g.Tags = append(g.Tags, r.s.st.tags[tagID])
	}
	sort.Slice(g.Tags, func(i, j int) bool { return g.Tags[i].Name < g.Tags[j].Name })
	return &g
}

func (r games) GetByID(_ context.Context, id uint64) (*model.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.st.games[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withTags(g), nil
}

func (r games) List(_ context.Context, f model.GameFilter) ([]*model.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := []*model.Game{}
	for _, x := range r.s.st.games {
		g := r.withTags(x)
		if q != "" && !strings.Contains(strings.ToLower(g.Title), q) {
			continue
		}
		if f.Tag != "" {
			found := false
			for _, t := range g.Tags {
				if t.Name == f.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return page(out, f.Limit, f.Offset), nil
}

func (r games) Update(_ context.Context, g *model.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.st.games[g.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, x := range r.s.st.games {
		if id != g.ID && x.Title == g.Title {
			return repository.ErrDuplicateTitle
		}
	}
	stored := *g
	stored.Tags = nil
	stored.CreatedAt = old.CreatedAt
	stored.UpdatedAt = r.s.now()
	r.s.st.games[g.ID] = stored
	return nil
}

func (r games) SetTags(_ context.Context, gameID uint64, tagIDs []uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := map[uint64]bool{}
	for _, id := range tagIDs {
		if _, ok := r.s.st.tags[id]; !ok {
			return repository.ErrNotFound
		}
		set[id] = true
	}
	r.s.st.gameTags[gameID] = set
	return nil
}

func (r games) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.games[id]; !ok {
		return repository.ErrNotFound
	}
	for k := range r.s.st.library {
		if k.game == id {
			return repository.ErrConflict
		}
	}
	delete(r.s.st.gameTags, id)
	delete(r.s.st.games, id)
	return nil
}

// ---- tags ----

type tags struct{ s *Store }

func (r tags) Create(_ context.Context, t *model.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.st.tags {
		if x.Name == t.Name {
			return repository.ErrDuplicateTagName
		}
	}
	r.s.st.nextTag++
	t.ID = r.s.st.nextTag
	r.s.st.tags[t.ID] = *t
	return nil
}

func (r tags) GetByID(_ context.Context, id uint64) (*model.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.st.tags[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r tags) List(_ context.Context) ([]model.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Tag, 0, len(r.s.st.tags))
	for _, t := range r.s.st.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r tags) Rename(_ context.Context, id uint64, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.st.tags[id]
	if !ok {
		return repository.ErrNotFound
	}
	for oid, x := range r.s.st.tags {
		if oid != id && x.Name == name {
			return repository.ErrDuplicateTagName
		}
	}
	t.Name = name
	r.s.st.tags[id] = t
	return nil
}

func (r tags) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.tags[id]; !ok {
		return repository.ErrNotFound
	}
	for _, set := range r.s.st.gameTags {
		delete(set, id)
	}
	delete(r.s.st.tags, id)
	return nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset < 0 || offset >= len(all) {
		return all[:0]
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
