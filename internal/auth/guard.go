package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// RequireIdentity rejects requests that reach a protected group without a resolved user,
// e.g. when a route was accidentally listed as public.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IdentityFrom(c).IsAuthenticated() {
			return apperrors.NewUnauthorized("Unauthorized")
		}
		return c.Next()
	}
}
