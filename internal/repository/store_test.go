package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQL_InTx_CommitsAllWrites(t *testing.T) {
	db, mock := newMock(t)
	m := NewMySQL(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles (user_id) VALUES (?)")).
		WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM game_tags WHERE tag_id=?")).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tags WHERE id=?")).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.InTx(context.Background(), func(ctx context.Context, s Stores) error {
		if err := s.Profiles.CreateEmpty(ctx, 7); err != nil {
			return err
		}
		return s.Tags.Delete(ctx, 3)
	})
	require.NoError(t, err)
}

func TestMySQL_InTx_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	m := NewMySQL(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM game_tags WHERE tag_id=?")).
		WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tags WHERE id=?")).
		WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := m.InTx(context.Background(), func(ctx context.Context, s Stores) error {
		return s.Tags.Delete(ctx, 9)
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQL_StoresAreWired(t *testing.T) {
	db, _ := newMock(t)
	s := NewMySQL(db).Stores()
	assert.NotNil(t, s.Users)
	assert.NotNil(t, s.Profiles)
	assert.NotNil(t, s.Library)
	assert.NotNil(t, s.Games)
	assert.NotNil(t, s.Tags)
}
