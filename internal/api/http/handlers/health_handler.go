package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/dto"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
}

// NewHealthHandler returns a new handler instance. Nil dependencies are skipped.
func NewHealthHandler(serviceName, version string, deps map[string]Pinger) *HealthHandler {
	checked := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			checked[name] = p
		}
	}
	return &HealthHandler{serviceName: serviceName, version: version, deps: checked}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.Success("alive", fiber.Map{
		"service": h.serviceName,
		"version": h.version,
	}))
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
			continue
		}
		depStatus[name] = "ok"
	}

	if ready {
		return c.JSON(dto.Success("ready", depStatus))
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.Envelope{
		Status:  dto.StatusError,
		Message: "one or more dependencies unavailable",
		Data:    depStatus,
	})
}
