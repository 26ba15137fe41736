package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r UserLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// UserUpdateRequest payload for profile changes.
type UserUpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PasswordChangeRequest payload for password changes.
type PasswordChangeRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

// Validate checks the password change payload.
func (r PasswordChangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 0), apperrors.MaxBytes(domain.MaxPasswordBytes)),
	)
}

// AuthResponse standard response for login.
type AuthResponse struct {
	AuthToken string    `json:"authToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserResponse strips credentials from a user record.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
