package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/auth"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// currentUser returns the identity the gate resolved for this request.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Unauthorized")
	}
	return user, nil
}
