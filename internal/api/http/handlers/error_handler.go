package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/dto"
)

// ErrorPageHandler describes an error status in the API envelope. Clients redirected here
// pass the status they received as ?status=.
type ErrorPageHandler struct{}

// NewErrorPageHandler constructs handler.
func NewErrorPageHandler() *ErrorPageHandler {
	return &ErrorPageHandler{}
}

// Show handles GET /error.
func (h *ErrorPageHandler) Show(c *fiber.Ctx) error {
	status, err := strconv.Atoi(c.Query("status"))
	if err != nil || status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	word := dto.StatusFail
	if status >= http.StatusInternalServerError {
		word = dto.StatusError
	}
	return c.Status(status).JSON(dto.Envelope{
		Status:  word,
		Message: http.StatusText(status),
		Data:    fiber.Map{"status": status},
	})
}
