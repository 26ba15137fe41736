package auth

import (
	"context"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

// TokenRegistry keeps the single live token of every user so that otherwise stateless
// tokens can be revoked server side.
//
// Find and Delete report absence with repository.ErrNotFound; infrastructure failures wrap
// repository.ErrStoreUnavailable.
type TokenRegistry interface {
	// Put stores token as the live token of userID, replacing any previous one.
	Put(ctx context.Context, userID, token string) (*domain.AuthToken, error)
	// Find returns the entry only when token is the currently registered one.
	Find(ctx context.Context, userID, token string) (*domain.AuthToken, error)
	// Delete removes the live entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, userID string) error
}

// IdentityLookup resolves an identity reference to its user record.
type IdentityLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
