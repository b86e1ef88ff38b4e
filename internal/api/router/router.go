// Package router wires the HTTP surface: middleware chain, public auth
// endpoints, authenticated payment endpoints and the operational routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/foliofyhq/foliofy/internal/api/handlers"
	"github.com/foliofyhq/foliofy/internal/api/middleware"
	"github.com/foliofyhq/foliofy/internal/config"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/metrics"
	"github.com/foliofyhq/foliofy/internal/token"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Subscription *handlers.SubscriptionHandler
}

func New(cfg *config.Config, log *logger.Logger, tokens *token.Service, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(metrics.Middleware)
	r.Use(middleware.RateLimit(100, 200))

	// Public routes
	r.Group(func(r chi.Router) {
		// Swagger documentation
		r.Get("/swagger/*", httpSwagger.WrapHandler)

		// Health checks
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		// Prometheus metrics
		r.Method(http.MethodGet, "/metrics", metrics.Handler())

		// Credential endpoints get a tighter limit: these are the
		// brute-force targets.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(5, 10))

			r.Post("/api/auth/signup", h.Auth.Signup)
			r.Post("/api/auth/login", h.Auth.Login)
			r.Post("/api/auth/google", h.Auth.GoogleLogin)
		})

		r.Post("/api/auth/refresh", h.Auth.RefreshToken)
		r.Post("/api/auth/logout", h.Auth.Logout)

		// Plan catalog is public so the pricing page needs no session.
		r.Get("/api/payment/plans", h.Subscription.Plans)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens))

		r.Get("/api/auth/me", h.Auth.Me)

		r.Route("/api/payment", func(r chi.Router) {
			r.Get("/status", h.Subscription.Status)
			r.Post("/mock-success", h.Subscription.MockSuccess)
			r.Post("/cancel", h.Subscription.Cancel)
			r.Post("/claim-student-offer", h.Subscription.ClaimStudentOffer)
		})
	})

	return r
}
