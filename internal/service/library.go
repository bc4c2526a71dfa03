package service

import (
	"context"
	"time"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/queue"
)

// PlaytimeInput updates the play statistics of an owned game. A nil
// LastPlayedAt keeps the stored value.
type PlaytimeInput struct {
	Minutes      uint32
	LastPlayedAt *time.Time
}

// LibraryService manages the games a user owns.
type LibraryService struct {
	Deps
}

// NewLibraryService returns a LibraryService using d.
func NewLibraryService(d Deps) *LibraryService {
	return &LibraryService{Deps: d.withDefaults()}
}

// List returns the games owned by userID (self or admin).
func (s *LibraryService) List(ctx context.Context, actor *model.User, userID uint64) ([]*model.LibraryEntry, error) {
	if err := authz.SelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	if _, err := s.Stores.Users.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.Stores.Library.ListByUser(ctx, userID)
}

// Add records that userID owns gameID. Adding an owned game yields
// repository.ErrAlreadyOwned.
func (s *LibraryService) Add(ctx context.Context, actor *model.User, userID, gameID uint64) (*model.LibraryEntry, error) {
	if err := authz.SelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	if _, err := s.Stores.Users.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	g, err := s.Stores.Games.GetByID(ctx, gameID)
	if err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}
	e, err := s.Stores.Library.Add(ctx, userID, gameID)
	if err != nil {
		return nil, notFound(err, ErrGameNotFound)
	}

	ev := queue.NewEvent(queue.EventLibraryGameAdded, s.Now())
	ev.UserID, ev.ActorID, ev.GameID, ev.GameTitle = userID, actor.ID, g.ID, g.Title
	s.publish(ctx, ev)
	return e, nil
}

// UpdatePlaytime records playtime for an owned game (self or admin).
func (s *LibraryService) UpdatePlaytime(ctx context.Context, actor *model.User, userID, gameID uint64, in PlaytimeInput) (*model.LibraryEntry, error) {
	if err := authz.SelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	if in.LastPlayedAt != nil {
		if in.LastPlayedAt.After(s.Now()) {
			return nil, Invalid("lastPlayedAt", "must not be in the future")
		}
		t := in.LastPlayedAt.UTC()
		in.LastPlayedAt = &t
	}
	if err := s.Stores.Library.UpdatePlaytime(ctx, userID, gameID, in.Minutes, in.LastPlayedAt); err != nil {
		return nil, notFound(err, ErrLibraryEntryNotFound)
	}
	e, err := s.Stores.Library.Get(ctx, userID, gameID)
	return e, notFound(err, ErrLibraryEntryNotFound)
}

// Remove drops a game from the library (self or admin).
func (s *LibraryService) Remove(ctx context.Context, actor *model.User, userID, gameID uint64) error {
	if err := authz.SelfOrAdmin(actor, userID); err != nil {
		return err
	}
	return notFound(s.Stores.Library.Remove(ctx, userID, gameID), ErrLibraryEntryNotFound)
}
