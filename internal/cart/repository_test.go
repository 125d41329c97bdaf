package cart

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/campuseats/internal/domain"
)

func newMockCartRepository(t *testing.T) (*CartRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCartRepository(db), mock
}

var cartLineColumns = []string{"id", "user_id", "food_id", "quantity", "created_at", "updated_at"}

func TestCartRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	expectLockedUpsert := func(mock sqlmock.Sqlmock, quantity int) *sqlmock.ExpectedQuery {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).
			WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		return mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user_id, food_id) DO UPDATE")).
			WithArgs(sqlmock.AnyArg(), "u1", "f1", quantity, domain.MaxQuantity)
	}

	t.Run("returns the written line", func(t *testing.T) {
		repo, mock := newMockCartRepository(t)
		now := time.Now().UTC()
		expectLockedUpsert(mock, 2).
			WillReturnRows(sqlmock.NewRows(cartLineColumns).AddRow("l1", "u1", "f1", 5, now, now))
		mock.ExpectCommit()

		line, err := repo.Upsert(ctx, "u1", "f1", 2)
		require.NoError(t, err)
		assert.Equal(t, 5, line.Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sum past the column limit is an invalid quantity", func(t *testing.T) {
		repo, mock := newMockCartRepository(t)
		expectLockedUpsert(mock, 1).WillReturnRows(sqlmock.NewRows(cartLineColumns))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM foods WHERE id = $1)")).
			WithArgs("f1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.Upsert(ctx, "u1", "f1", 1)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuantity), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown food", func(t *testing.T) {
		repo, mock := newMockCartRepository(t)
		expectLockedUpsert(mock, 1).WillReturnRows(sqlmock.NewRows(cartLineColumns))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("f1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := repo.Upsert(ctx, "u1", "f1", 1)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
