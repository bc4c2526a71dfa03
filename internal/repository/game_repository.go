package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/game-catalog/internal/database"
	"github.com/iliyamo/game-catalog/internal/model"
)

const gameColumns = "g.id, g.title, g.description, g.developer, g.publisher, g.release_date, g.price_cents, g.created_at, g.updated_at"

// GameRepo encapsulates queries on `games` and `game_tags`.
type GameRepo struct{ db database.DBTX }

// NewGameRepo returns a GameRepo running on db.
func NewGameRepo(db database.DBTX) *GameRepo { return &GameRepo{db: db} }

func scanGame(row interface{ Scan(...any) error }) (*model.Game, error) {
	var (
		g       model.Game
		release sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Developer, &g.Publisher,
		&release, &g.PriceCents, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if release.Valid {
		t := release.Time
		g.ReleaseDate = &t
	}
	g.Tags = []model.Tag{}
	return &g, nil
}

func gameWriteErr(err error) error {
	if _, dup := duplicateIndex(err); dup {
		return ErrDuplicateTitle
	}
	return err
}

// Create inserts g (without tags) and fills its ID.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO games (title, description, developer, publisher, release_date, price_cents)
		 VALUES (?,?,?,?,?,?)`,
		g.Title, g.Description, g.Developer, g.Publisher, g.ReleaseDate, g.PriceCents)
	if err != nil {
		return gameWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// GetByID fetches a game with its tags.
func (r *GameRepo) GetByID(ctx context.Context, id uint64) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx, "SELECT "+gameColumns+" FROM games g WHERE g.id=?", id))
	if err != nil {
		return nil, err
	}
	tags, err := r.tagsFor(ctx, []uint64{g.ID})
	if err != nil {
		return nil, err
	}
	g.Tags = append(g.Tags, tags[g.ID]...)
	return g, nil
}

// List returns games matching f ordered by title, each with its tags.
func (r *GameRepo) List(ctx context.Context, f model.GameFilter) ([]*model.Game, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT " + gameColumns + " FROM games g")
	var where []string
	if f.Tag != "" {
		sb.WriteString(" JOIN game_tags gt ON gt.game_id = g.id JOIN tags t ON t.id = gt.tag_id")
		where = append(where, "t.name = ?")
		args = append(args, f.Tag)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "LOWER(g.title) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY g.title LIMIT ? OFFSET ?")
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []*model.Game
		ids []uint64
	)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Game{}, nil
	}
	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, g := range out {
		g.Tags = append(g.Tags, tags[g.ID]...)
	}
	return out, nil
}

func (r *GameRepo) tagsFor(ctx context.Context, ids []uint64) (map[uint64][]model.Tag, error) {
	ph := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT gt.game_id, t.id, t.name FROM game_tags gt JOIN tags t ON t.id = gt.tag_id
		 WHERE gt.game_id IN (`+ph+`) ORDER BY t.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64][]model.Tag, len(ids))
	for rows.Next() {
		var (
			gameID uint64
			t      model.Tag
		)
		if err := rows.Scan(&gameID, &t.ID, &t.Name); err != nil {
			return nil, err
		}
		out[gameID] = append(out[gameID], t)
	}
	return out, rows.Err()
}

// Update writes the scalar columns of g.
func (r *GameRepo) Update(ctx context.Context, g *model.Game) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE games SET title=?, description=?, developer=?, publisher=?, release_date=?, price_cents=?,
		 updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		g.Title, g.Description, g.Developer, g.Publisher, g.ReleaseDate, g.PriceCents, g.ID)
	if err != nil {
		return gameWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := scanGame(r.db.QueryRowContext(ctx, "SELECT "+gameColumns+" FROM games g WHERE g.id=?", g.ID)); err != nil {
			return err
		}
	}
	return nil
}

// SetTags replaces the tag set of a game. An unknown tag id yields
// ErrNotFound. Callers should run it inside a transaction.
func (r *GameRepo) SetTags(ctx context.Context, gameID uint64, tagIDs []uint64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM game_tags WHERE game_id=?", gameID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO game_tags (game_id, tag_id) VALUES (?,?)", gameID, tagID); err != nil {
			if isMissingParent(err) {
				return ErrNotFound
			}
			if _, dup := duplicateIndex(err); dup {
				continue
			}
			return err
		}
	}
	return nil
}

// Delete removes a game and its tag links. A game that is still in some
// user's library yields ErrConflict. Callers should run it inside a
// transaction.
func (r *GameRepo) Delete(ctx context.Context, id uint64) error {
	var owned int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_games WHERE game_id=?", id).Scan(&owned); err != nil {
		return err
	}
	if owned > 0 {
		return ErrConflict
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM game_tags WHERE game_id=?", id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM games WHERE id=?", id)
	if err != nil {
		if isRowReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
