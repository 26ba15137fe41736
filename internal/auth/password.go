package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a plaintext password does not match its hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher hashes and checks user passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher clamps cost to the range bcrypt accepts.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

// Hash hashes a plaintext password with the configured cost.
func (h PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare verifies a password against its hashed value.
func (h PasswordHasher) Compare(hashed, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}
