package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-catalog/internal/database"
	"github.com/iliyamo/game-catalog/internal/model"
)

// ProfileRepo encapsulates queries on `profiles`.
type ProfileRepo struct{ db database.DBTX }

// NewProfileRepo returns a ProfileRepo running on db.
func NewProfileRepo(db database.DBTX) *ProfileRepo { return &ProfileRepo{db: db} }

// CreateEmpty inserts a blank profile for a freshly registered user.
func (r *ProfileRepo) CreateEmpty(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO profiles (user_id) VALUES (?)", userID)
	if err != nil {
		if isMissingParent(err) {
			return ErrNotFound
		}
		if _, dup := duplicateIndex(err); dup {
			return nil
		}
	}
	return err
}

// GetByUserID returns the profile of userID or ErrNotFound.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error) {
	var p model.Profile
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, display_name, bio, avatar_url, country, updated_at FROM profiles WHERE user_id=?",
		userID).Scan(&p.UserID, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.Country, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes p, creating the row if it is missing.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name, bio, avatar_url, country) VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE display_name=VALUES(display_name), bio=VALUES(bio),
		 avatar_url=VALUES(avatar_url), country=VALUES(country), updated_at=CURRENT_TIMESTAMP`,
		p.UserID, p.DisplayName, p.Bio, p.AvatarURL, p.Country)
	if err != nil && isMissingParent(err) {
		return ErrNotFound
	}
	return err
}

// DeleteByUser removes a user's profile if present.
func (r *ProfileRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE user_id=?", userID)
	return err
}
