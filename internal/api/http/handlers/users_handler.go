package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/dto"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/service"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.Success("user registered", fiber.Map{"id": user.ID}))
}

// Login handles POST /api/auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation("invalid credentials payload", err)
	}

	_, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.Success("login successful", dto.AuthResponse{AuthToken: token, ExpiresAt: exp}))
}

// Logout handles POST /api/users/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), user.ID); err != nil {
		return err
	}
	return c.JSON(dto.Success("logged out", nil))
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("current user", dto.NewUserResponse(user)))
}

// UpdateMe handles PUT /api/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), user, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.Success("profile updated", dto.NewUserResponse(updated)))
}

// ChangePassword handles PUT /api/users/me/password. The current token is revoked.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation("invalid password payload", err)
	}

	if err := h.auth.ChangePassword(c.UserContext(), user, req.Password, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.Success("password changed, please log in again", nil))
}
