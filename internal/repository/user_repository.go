package repository

import (
	"context"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return storeError("create user", err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.ID,
	).Scan(&user.UpdatedAt)
	return storeError("update user", err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, storeError("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM users WHERE email=$1`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, storeError("get user by email", err)
	}
	return &user, nil
}
