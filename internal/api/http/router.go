package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/api/http/handlers"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Gate      *auth.Gate
	Health    *handlers.HealthHandler
	Users     *handlers.UsersHandler
	Tasks     *handlers.TasksHandler
	Errors    *handlers.ErrorPageHandler
	Metrics   fiber.Handler
	UploadDir string
}

// RegisterRoutes wires HTTP routes. Every route sits behind the authentication gate;
// exemptions are decided by the gate's public path configuration.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}
	app.Get("/error", cfg.Errors.Show)
	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	users := api.Group("/users", auth.RequireIdentity())
	users.Post("/logout", cfg.Users.Logout)
	users.Get("/me", cfg.Users.Me)
	users.Put("/me", cfg.Users.UpdateMe)
	users.Put("/me/password", cfg.Users.ChangePassword)

	tasks := api.Group("/tasks", auth.RequireIdentity())
	tasks.Get("/", cfg.Tasks.List)
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Put("/:id", cfg.Tasks.Update)
	tasks.Patch("/:id/status", cfg.Tasks.UpdateStatus)
	tasks.Delete("/:id", cfg.Tasks.Delete)
}
