package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
	"github.com/iliyamo/game-catalog/internal/repository"
)

// GameInput is the writable part of a catalog game.
type GameInput struct {
	Title       string
	Description string
	Developer   string
	Publisher   string
	ReleaseDate *time.Time
	PriceCents  uint32
	TagIDs      []uint64
}

// GameQuery filters a catalog listing.
type GameQuery struct {
	Tag   string
	Query string
	Page  Page
}

// CatalogService serves the game catalog and its tags. Reads are public,
// writes are admin only.
type CatalogService struct {
	Deps
}

// NewCatalogService returns a CatalogService using d.
func NewCatalogService(d Deps) *CatalogService {
	return &CatalogService{Deps: d.withDefaults()}
}

// ListGames searches the catalog. Anyone may call it.
func (s *CatalogService) ListGames(ctx context.Context, q GameQuery) ([]*model.Game, error) {
	return s.Stores.Games.List(ctx, model.GameFilter{
		Tag:    strings.TrimSpace(q.Tag),
		Query:  strings.TrimSpace(q.Query),
		Limit:  q.Page.Limit(),
		Offset: q.Page.Offset(),
	})
}

// GetGame returns a game with its tags or ErrGameNotFound.
func (s *CatalogService) GetGame(ctx context.Context, id uint64) (*model.Game, error) {
	g, err := s.Stores.Games.GetByID(ctx, id)
	return g, notFound(err, ErrGameNotFound)
}

func (in *GameInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Developer = strings.TrimSpace(in.Developer)
	in.Publisher = strings.TrimSpace(in.Publisher)
	var v validator
	v.length("title", in.Title, 1, TitleMax)
	v.maxLen("description", in.Description, DescriptionMax)
	v.maxLen("developer", in.Developer, CompanyMax)
	v.maxLen("publisher", in.Publisher, CompanyMax)
	return v.err()
}

func (in GameInput) apply(g *model.Game) {
	g.Title = in.Title
	g.Description = in.Description
	g.Developer = in.Developer
	g.Publisher = in.Publisher
	g.PriceCents = in.PriceCents
	g.ReleaseDate = nil
	if in.ReleaseDate != nil {
		d := in.ReleaseDate.UTC().Truncate(24 * time.Hour)
		g.ReleaseDate = &d
	}
}

// CreateGame adds a game and links its tags atomically.
func (s *CatalogService) CreateGame(ctx context.Context, actor *model.User, in GameInput) (*model.Game, error) {
	if err := authz.AdminOnly(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var out *model.Game
	err := s.Tx.InTx(ctx, func(ctx context.Context, st repository.Stores) error {
		g := &model.Game{}
		in.apply(g)
		if err := st.Games.Create(ctx, g); err != nil {
			return err
		}
		if err := st.Games.SetTags(ctx, g.ID, in.TagIDs); err != nil {
			return notFound(err, ErrTagNotFound)
		}
		var err error
		out, err = st.Games.GetByID(ctx, g.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithField("game_id", out.ID).Info("game created")
	return out, nil
}

// UpdateGame replaces every writable field of a game, tags included.
func (s *CatalogService) UpdateGame(ctx context.Context, actor *model.User, id uint64, in GameInput) (*model.Game, error) {
	if err := authz.AdminOnly(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var out *model.Game
	err := s.Tx.InTx(ctx, func(ctx context.Context, st repository.Stores) error {
		g, err := st.Games.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrGameNotFound)
		}
		in.apply(g)
		if err := st.Games.Update(ctx, g); err != nil {
			return notFound(err, ErrGameNotFound)
		}
		if err := st.Games.SetTags(ctx, id, in.TagIDs); err != nil {
			return notFound(err, ErrTagNotFound)
		}
		out, err = st.Games.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteGame removes a game that nobody owns. Owned games yield
// repository.ErrConflict.
func (s *CatalogService) DeleteGame(ctx context.Context, actor *model.User, id uint64) error {
	if err := authz.AdminOnly(actor); err != nil {
		return err
	}
	err := s.Tx.InTx(ctx, func(ctx context.Context, st repository.Stores) error {
		return notFound(st.Games.Delete(ctx, id), ErrGameNotFound)
	})
	if err != nil {
		return err
	}
	s.Log.WithField("game_id", id).Info("game deleted")
	return nil
}

// ListTags returns every tag ordered by name.
func (s *CatalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	return s.Stores.Tags.List(ctx)
}

// GetTag returns a tag or ErrTagNotFound.
func (s *CatalogService) GetTag(ctx context.Context, id uint64) (*model.Tag, error) {
	t, err := s.Stores.Tags.GetByID(ctx, id)
	return t, notFound(err, ErrTagNotFound)
}

func validTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	var v validator
	v.length("name", name, 1, TagNameMax)
	return name, v.err()
}

// CreateTag adds a tag (admin only).
func (s *CatalogService) CreateTag(ctx context.Context, actor *model.User, name string) (*model.Tag, error) {
	if err := authz.AdminOnly(actor); err != nil {
		return nil, err
	}
	name, err := validTagName(name)
	if err != nil {
		return nil, err
	}
	t := &model.Tag{Name: name}
	if err := s.Stores.Tags.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// RenameTag changes a tag name (admin only).
func (s *CatalogService) RenameTag(ctx context.Context, actor *model.User, id uint64, name string) (*model.Tag, error) {
	if err := authz.AdminOnly(actor); err != nil {
		return nil, err
	}
	name, err := validTagName(name)
	if err != nil {
		return nil, err
	}
	if err := s.Stores.Tags.Rename(ctx, id, name); err != nil {
		return nil, notFound(err, ErrTagNotFound)
	}
	return &model.Tag{ID: id, Name: name}, nil
}

// DeleteTag removes a tag and unlinks it from every game.
func (s *CatalogService) DeleteTag(ctx context.Context, actor *model.User, id uint64) error {
	if err := authz.AdminOnly(actor); err != nil {
		return err
	}
	return s.Tx.InTx(ctx, func(ctx context.Context, st repository.Stores) error {
		return notFound(st.Tags.Delete(ctx, id), ErrTagNotFound)
	})
}
