package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitorbastosbn/nutricionista/internal/auth"
	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/internal/service"
	"github.com/vitorbastosbn/nutricionista/pkg/health"
	"github.com/vitorbastosbn/nutricionista/pkg/middleware"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	ServiceName string
	AuthService *service.AuthService
	UserService *service.UserService
	RoleService *service.RoleService
	Codec       *auth.Codec
	Health      *health.Handler
	// RateLimiter guards /api/v1/auth. Nil disables limiting.
	RateLimiter *middleware.RateLimiter
	CORS        middleware.CORSConfig
	// PprofAllowedCIDRs enables /debug/pprof for these networks when non-empty.
	PprofAllowedCIDRs []string
	Logger            *slog.Logger
}

// NewRouter creates a chi router with all service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health and metrics
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	// Auth endpoints (public)
	authHandler := NewAuthHandler(cfg.AuthService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}

		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/refresh", authHandler.Refresh)
	})

	authenticate := middleware.Auth(accessTokenValidator(cfg.Codec))
	requireAdmin := middleware.RequireRole(domain.RoleAdmin)

	userHandler := NewUserHandler(cfg.UserService, logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequestLogger(logger))

		r.Get("/me", userHandler.GetMe)
		r.Put("/me", userHandler.UpdateMe)
		r.Put("/me/address", userHandler.UpdateMyAddress)
		r.Put("/me/contact", userHandler.UpdateMyContact)
		r.Delete("/me", userHandler.DeleteMe)

		r.Get("/{id}", userHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/", userHandler.List)
			r.Put("/{id}", userHandler.Update)
			r.Put("/{id}/address", userHandler.UpdateAddress)
			r.Put("/{id}/contact", userHandler.UpdateContact)
			r.Delete("/{id}", userHandler.Delete)
			r.Put("/{id}/roles", userHandler.SetRoles)
			r.Post("/{id}/roles/{roleId}", userHandler.AddRole)
			r.Delete("/{id}/roles/{roleId}", userHandler.RemoveRole)
		})
	})

	roleHandler := NewRoleHandler(cfg.RoleService, logger)
	r.Route("/api/v1/roles", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequestLogger(logger))
		r.Use(requireAdmin)

		r.Post("/", roleHandler.Create)
		r.Get("/", roleHandler.List)
		r.Get("/{id}", roleHandler.Get)
		r.Put("/{id}", roleHandler.Update)
		r.Delete("/{id}", roleHandler.Delete)
	})

	return r
}

var errNotAccessToken = errors.New("not an access token")

// accessTokenValidator bridges the token codec to the auth middleware.
// Refresh tokens are rejected as bearer credentials.
func accessTokenValidator(codec *auth.Codec) middleware.TokenValidator {
	return func(token string) (*middleware.Principal, error) {
		claims, err := codec.DecodeAndVerify(token)
		if err != nil {
			return nil, err
		}
		if claims.Type != auth.TokenTypeAccess {
			return nil, errNotAccessToken
		}
		return &middleware.Principal{
			UserID: claims.UserID,
			Email:  claims.Subject,
			Roles:  claims.Roles,
		}, nil
	}
}
