package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Customers      *handlers.CustomersHandler
	Tickets        *handlers.TicketsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        http.Handler
}

// RegisterRoutes wires HTTP routes. Every domain route requires a bearer token;
// destructive deletes and the user directory are ADMIN only.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)

	authed := cfg.AuthMiddleware.Handle
	admin := auth.RequireAdmin()

	app.Get("/users", authed, admin, cfg.Users.ListUsers)

	app.Post("/customers", authed, cfg.Customers.CreateCustomer)
	app.Get("/customers", authed, cfg.Customers.ListCustomers)
	app.Delete("/customers/:id", authed, admin, cfg.Customers.DeleteCustomer)

	app.Post("/tickets", authed, cfg.Tickets.CreateTicket)
	app.Get("/tickets", authed, cfg.Tickets.ListTickets)
	app.Put("/tickets/:id/update", authed, cfg.Tickets.UpdateTicket)
	app.Put("/tickets/:id/assign", authed, cfg.Tickets.AssignTicket)
	app.Get("/tickets/:id/history", authed, cfg.Tickets.ListHistory)
	app.Delete("/tickets/:id", authed, admin, cfg.Tickets.DeleteTicket)

	app.Get("/dashboard/summary", authed, cfg.Dashboard.Summary)
}
