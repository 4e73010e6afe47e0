package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workspace-service/internal/api/http/handlers"
	"github.com/spec-kit/workspace-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Workspaces     *handlers.WorkspaceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/register", cfg.Auth.Register)
	app.Post("/login", cfg.Auth.Login)
	// Refresh authenticates via the cookie, not the bearer header.
	app.Post("/refresh", cfg.Auth.Refresh)

	app.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	app.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	app.Patch("/change-password", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	workspaces := app.Group("/workspaces", cfg.AuthMiddleware.Handle)
	workspaces.Post("", cfg.Workspaces.Create)
	workspaces.Get("", cfg.Workspaces.List)
	workspaces.Get("/:slug", cfg.Workspaces.GetBySlug)
}
