package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/game-catalog/internal/database"
	"github.com/iliyamo/game-catalog/internal/model"
)

// UserStore is the credential store contract.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *model.User) error
	DeleteByID(ctx context.Context, id uint64) error
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
}

// ProfileStore persists the one-to-one user profiles.
type ProfileStore interface {
	CreateEmpty(ctx context.Context, userID uint64) error
	GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) error
	DeleteByUser(ctx context.Context, userID uint64) error
}

// LibraryStore persists per-user purchase records.
type LibraryStore interface {
	Add(ctx context.Context, userID, gameID uint64) (*model.LibraryEntry, error)
	Get(ctx context.Context, userID, gameID uint64) (*model.LibraryEntry, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.LibraryEntry, error)
	UpdatePlaytime(ctx context.Context, userID, gameID uint64, minutes uint32, lastPlayed *time.Time) error
	Remove(ctx context.Context, userID, gameID uint64) error
	DeleteByUser(ctx context.Context, userID uint64) error
}

// GameStore persists catalog games and their tag links.
type GameStore interface {
	Create(ctx context.Context, g *model.Game) error
	GetByID(ctx context.Context, id uint64) (*model.Game, error)
	List(ctx context.Context, f model.GameFilter) ([]*model.Game, error)
	Update(ctx context.Context, g *model.Game) error
	SetTags(ctx context.Context, gameID uint64, tagIDs []uint64) error
	Delete(ctx context.Context, id uint64) error
}

// TagStore persists catalog tags.
type TagStore interface {
	Create(ctx context.Context, t *model.Tag) error
	GetByID(ctx context.Context, id uint64) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	Rename(ctx context.Context, id uint64, name string) error
	Delete(ctx context.Context, id uint64) error
}

// Stores bundles one handle per table group. A Stores obtained inside
// Transactor.InTx shares a single transaction.
type Stores struct {
	Users    UserStore
	Profiles ProfileStore
	Library  LibraryStore
	Games    GameStore
	Tags     TagStore
}

// Transactor runs fn with stores bound to one unit of work: either every
// write inside fn commits or none does.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// MySQL wires the MySQL repositories to a connection pool.
type MySQL struct {
	db *sql.DB
}

// NewMySQL returns stores backed by db.
func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

func storesOn(db database.DBTX) Stores {
	return Stores{
		Users:    NewUserRepo(db),
		Profiles: NewProfileRepo(db),
		Library:  NewLibraryRepo(db),
		Games:    NewGameRepo(db),
		Tags:     NewTagRepo(db),
	}
}

// Stores returns non-transactional stores on the pool.
func (m *MySQL) Stores() Stores { return storesOn(m.db) }

// InTx implements Transactor.
func (m *MySQL) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	return database.WithTx(ctx, m.db, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, storesOn(tx))
	})
}
