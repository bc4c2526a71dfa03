package service

import (
	"context"
	"strings"

	"github.com/iliyamo/game-catalog/internal/authz"
	"github.com/iliyamo/game-catalog/internal/model"
)

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	DisplayName string
	Bio         string
	AvatarURL   string
	Country     string
}

// ProfileService reads and edits user profiles.
type ProfileService struct {
	Deps
}

// NewProfileService returns a ProfileService using d.
func NewProfileService(d Deps) *ProfileService {
	return &ProfileService{Deps: d.withDefaults()}
}

// Get returns a user's public profile.
func (s *ProfileService) Get(ctx context.Context, userID uint64) (*model.Profile, error) {
	p, err := s.Stores.Profiles.GetByUserID(ctx, userID)
	return p, notFound(err, ErrProfileNotFound)
}

// Update replaces the profile of userID.
func (s *ProfileService) Update(ctx context.Context, actor *model.User, userID uint64, in ProfileInput) (*model.Profile, error) {
	if err := authz.SelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	p := &model.Profile{
		UserID:      userID,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Bio:         strings.TrimSpace(in.Bio),
		AvatarURL:   strings.TrimSpace(in.AvatarURL),
		Country:     strings.TrimSpace(in.Country),
	}
	var v validator
	v.maxLen("displayName", p.DisplayName, DisplayNameMax)
	v.maxLen("bio", p.Bio, BioMax)
	v.url("avatarUrl", p.AvatarURL)
	v.maxLen("country", p.Country, CountryMax)
	if err := v.err(); err != nil {
		return nil, err
	}
	if err := s.Stores.Profiles.Upsert(ctx, p); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.Get(ctx, userID)
}
