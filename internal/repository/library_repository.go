package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/game-catalog/internal/database"
	"github.com/iliyamo/game-catalog/internal/model"
)

// LibraryRepo encapsulates queries on `user_games`, the per-user purchase
// records.
type LibraryRepo struct{ db database.DBTX }

// NewLibraryRepo returns a LibraryRepo running on db.
func NewLibraryRepo(db database.DBTX) *LibraryRepo { return &LibraryRepo{db: db} }

const libraryColumns = "ug.user_id, ug.game_id, g.title, ug.purchased_at, ug.playtime_minutes, ug.last_played_at"

func scanEntry(row interface{ Scan(...any) error }) (*model.LibraryEntry, error) {
	var (
		e    model.LibraryEntry
		last sql.NullTime
	)
	if err := row.Scan(&e.UserID, &e.GameID, &e.GameTitle, &e.PurchasedAt, &e.PlaytimeMinutes, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if last.Valid {
		t := last.Time
		e.LastPlayedAt = &t
	}
	return &e, nil
}

// Add records that userID owns gameID. Owning the game already yields
// ErrAlreadyOwned; an unknown game or user yields ErrNotFound.
func (r *LibraryRepo) Add(ctx context.Context, userID, gameID uint64) (*model.LibraryEntry, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_games (user_id, game_id) VALUES (?,?)", userID, gameID)
	if err != nil {
		if _, dup := duplicateIndex(err); dup {
			return nil, ErrAlreadyOwned
		}
		if isMissingParent(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.Get(ctx, userID, gameID)
}

// Get returns a single library entry.
func (r *LibraryRepo) Get(ctx context.Context, userID, gameID uint64) (*model.LibraryEntry, error) {
	return scanEntry(r.db.QueryRowContext(ctx,
		"SELECT "+libraryColumns+" FROM user_games ug JOIN games g ON g.id = ug.game_id WHERE ug.user_id=? AND ug.game_id=?",
		userID, gameID))
}

// ListByUser returns a user's library ordered by purchase time, newest first.
func (r *LibraryRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.LibraryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+libraryColumns+" FROM user_games ug JOIN games g ON g.id = ug.game_id WHERE ug.user_id=? ORDER BY ug.purchased_at DESC, ug.game_id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.LibraryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdatePlaytime sets the playtime counter and optionally the last-played
// timestamp of an entry.
func (r *LibraryRepo) UpdatePlaytime(ctx context.Context, userID, gameID uint64, minutes uint32, lastPlayed *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_games SET playtime_minutes=?, last_played_at=COALESCE(?, last_played_at) WHERE user_id=? AND game_id=?",
		minutes, lastPlayed, userID, gameID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, userID, gameID); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes one library entry.
func (r *LibraryRepo) Remove(ctx context.Context, userID, gameID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM user_games WHERE user_id=? AND game_id=?", userID, gameID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes every library entry of a user.
func (r *LibraryRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM user_games WHERE user_id=?", userID)
	return err
}
