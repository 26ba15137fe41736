package domain

import "time"

// AuthToken is the registry entry marking the single live token of a user.
// Only the SHA-256 digest of the token is kept.
type AuthToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
}
