package repository

import (
	"context"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

// PostgresTokenRegistry keeps live tokens in the auth_tokens table. The unique index on
// user_id makes Put an atomic last-writer-wins upsert.
type PostgresTokenRegistry struct {
	db DBTX
}

// NewPostgresTokenRegistry returns a Postgres-backed registry.
func NewPostgresTokenRegistry(db DBTX) *PostgresTokenRegistry {
	return &PostgresTokenRegistry{db: db}
}

func (r *PostgresTokenRegistry) Put(ctx context.Context, userID, token string) (*domain.AuthToken, error) {
	const query = `
        INSERT INTO auth_tokens (user_id, token_hash)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET token_hash = EXCLUDED.token_hash, created_at = NOW()
        RETURNING id, user_id, token_hash, created_at`

	var entry domain.AuthToken
	if err := r.db.QueryRow(ctx, query, userID, HashToken(token)).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.TokenHash,
		&entry.CreatedAt,
	); err != nil {
		return nil, storeError("put auth token", err)
	}
	return &entry, nil
}

func (r *PostgresTokenRegistry) Find(ctx context.Context, userID, token string) (*domain.AuthToken, error) {
	const query = `
        SELECT id, user_id, token_hash, created_at
        FROM auth_tokens WHERE user_id=$1 AND token_hash=$2`

	var entry domain.AuthToken
	if err := r.db.QueryRow(ctx, query, userID, HashToken(token)).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.TokenHash,
		&entry.CreatedAt,
	); err != nil {
		return nil, storeError("find auth token", err)
	}
	return &entry, nil
}

func (r *PostgresTokenRegistry) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM auth_tokens WHERE user_id=$1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return storeError("delete auth token", err)
	}
	return nil
}
