package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "0b6f3c1e-7d35-4a52-9c1e-1f6f8f2c9a10"

func newMockRegistry(t *testing.T) (pgxmock.PgxPoolIface, *PostgresTokenRegistry) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresTokenRegistry(mock)
}

func tokenRows(userID, hash string, createdAt time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "user_id", "token_hash", "created_at"}).
		AddRow("entry-1", userID, hash, createdAt)
}

func TestPostgresTokenRegistry_PutUpsertsByUser(t *testing.T) {
	mock, registry := newMockRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO auth_tokens .* ON CONFLICT").
		WithArgs(testUserID, HashToken("first")).
		WillReturnRows(tokenRows(testUserID, HashToken("first"), now))
	mock.ExpectQuery("INSERT INTO auth_tokens .* ON CONFLICT").
		WithArgs(testUserID, HashToken("second")).
		WillReturnRows(tokenRows(testUserID, HashToken("second"), now.Add(time.Second)))

	first, err := registry.Put(ctx, testUserID, "first")
	require.NoError(t, err)
	assert.Equal(t, HashToken("first"), first.TokenHash)

	second, err := registry.Put(ctx, testUserID, "second")
	require.NoError(t, err)
	assert.Equal(t, testUserID, second.UserID)
	assert.Equal(t, HashToken("second"), second.TokenHash)
	assert.NotEqual(t, "second", second.TokenHash, "raw token must not be stored")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTokenRegistry_Find(t *testing.T) {
	mock, registry := newMockRegistry(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, user_id, token_hash, created_at").
		WithArgs(testUserID, HashToken("live")).
		WillReturnRows(tokenRows(testUserID, HashToken("live"), time.Now()))
	mock.ExpectQuery("SELECT id, user_id, token_hash, created_at").
		WithArgs(testUserID, HashToken("stale")).
		WillReturnError(pgx.ErrNoRows)

	entry, err := registry.Find(ctx, testUserID, "live")
	require.NoError(t, err)
	assert.Equal(t, "entry-1", entry.ID)

	_, err = registry.Find(ctx, testUserID, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTokenRegistry_DeleteIsIdempotent(t *testing.T) {
	mock, registry := newMockRegistry(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM auth_tokens").
		WithArgs(testUserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM auth_tokens").
		WithArgs(testUserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, registry.Delete(ctx, testUserID))
	assert.NoError(t, registry.Delete(ctx, testUserID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTokenRegistry_StoreFailuresAreNotSwallowed(t *testing.T) {
	mock, registry := newMockRegistry(t)
	ctx := context.Background()
	cause := errors.New("connection reset by peer")

	mock.ExpectQuery("SELECT id, user_id, token_hash, created_at").
		WithArgs(testUserID, HashToken("tok")).
		WillReturnError(cause)
	mock.ExpectExec("DELETE FROM auth_tokens").
		WithArgs(testUserID).
		WillReturnError(context.DeadlineExceeded)

	_, err := registry.Find(ctx, testUserID, "tok")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = registry.Delete(ctx, testUserID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.NoError(t, mock.ExpectationsWereMet())
}
