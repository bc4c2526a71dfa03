package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-catalog/internal/database"
	"github.com/iliyamo/game-catalog/internal/model"
)

// TagRepo encapsulates queries on the `tags` table.
type TagRepo struct{ db database.DBTX }

// NewTagRepo returns a TagRepo running on db.
func NewTagRepo(db database.DBTX) *TagRepo { return &TagRepo{db: db} }

// Create inserts t and fills its ID.
func (r *TagRepo) Create(ctx context.Context, t *model.Tag) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", t.Name)
	if err != nil {
		if _, dup := duplicateIndex(err); dup {
			return ErrDuplicateTagName
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID returns the tag or ErrNotFound.
func (r *TagRepo) GetByID(ctx context.Context, id uint64) (*model.Tag, error) {
	var t model.Tag
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM tags WHERE id=?", id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns every tag ordered by name.
func (r *TagRepo) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Rename changes a tag's name.
func (r *TagRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tags SET name=? WHERE id=?", name, id)
	if err != nil {
		if _, dup := duplicateIndex(err); dup {
			return ErrDuplicateTagName
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete detaches the tag from all games and removes it. Callers should run
// it inside a transaction.
func (r *TagRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM game_tags WHERE tag_id=?", id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
