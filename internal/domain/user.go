package domain

import "time"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// User is the identity record behind every authenticated request.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
