package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stayhub/booking-api/internal/api/http/handlers"
	"github.com/stayhub/booking-api/internal/auth"
	"github.com/stayhub/booking-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Support        *handlers.SupportHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	support := app.Group("/support", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	support.Post("/", cfg.Support.CreateSupportRequest)
	support.Get("/", cfg.Support.GetSupportList)
	// The admin guard on the statistics route is mandatory; the service does
	// not re-check the role.
	support.Get("/stats/reps", auth.RequireRole(domain.RoleAdmin), cfg.Support.GetSupportRepStatistics)
	support.Get("/:id", cfg.Support.GetSupportByID)
	support.Post("/:id/close", cfg.Support.CloseSupportRequest)
}
