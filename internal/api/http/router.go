package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reclamos-service/internal/api/http/handlers"
	"github.com/spec-kit/reclamos-service/internal/auth"
	"github.com/spec-kit/reclamos-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath       string
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Claims         *handlers.ClaimsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes under the optional base path.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	root := app.Group(cfg.BasePath)

	root.Get("/health", cfg.Health.Health)
	root.Get("/health/live", cfg.Health.Live)
	root.Get("/health/ready", cfg.Health.Ready)
	root.Get("/metrics", cfg.Health.Metrics())

	optional := cfg.AuthMiddleware.Optional
	required := cfg.AuthMiddleware.Handle
	moderator := auth.RequireModerator()

	root.Post("/signup", cfg.Auth.Signup)
	root.Post("/login", cfg.Auth.Login)
	root.Get("/session", optional, cfg.Auth.Session)
	root.Post("/logout", optional, cfg.Auth.Logout)

	users := root.Group("/users", required, moderator)
	users.Get("", cfg.Users.List)
	users.Patch("/:id", cfg.Users.Update)
	users.Get("/:id/stats", cfg.Users.Stats)

	claims := root.Group("/claims")
	claims.Get("", cfg.Claims.List)
	claims.Get("/tracking/:code", cfg.Claims.GetByTrackingNumber)
	claims.Post("", required, moderator, cfg.Claims.Create)
	claims.Patch("/:id", required, auth.RequireRole(domain.RoleModerador, domain.RoleExterno), cfg.Claims.Update)
	claims.Delete("/:id", required, moderator, cfg.Claims.Delete)
	claims.Post("/:id/assign", required, moderator, cfg.Claims.Assign)
	claims.Post("/:id/activity", required, auth.RequireRole(domain.RoleModerador, domain.RoleExterno), cfg.Claims.AddActivity)
	claims.Post("/:id/comment", optional, cfg.Claims.AddComment)

	statsViewers := auth.RequireRole(domain.RoleModerador, domain.RoleExterno)
	stats := root.Group("/stats", required)
	stats.Get("", statsViewers, cfg.Stats.Report)
	stats.Get("/export", statsViewers, cfg.Stats.Export)
	stats.Get("/dashboard", moderator, cfg.Stats.Dashboard)
}
