// Package usersapi собирает HTTP-приложение сервиса пользователей.
package usersapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/users-api/internal/config"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/health"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/bylocation"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/count"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/create"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/read"
	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/update"
	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/users-api/internal/metrics"
	authservice "github.com/magabrotheeeer/users-api/internal/services/auth"
	locationservice "github.com/magabrotheeeer/users-api/internal/services/location"
	userservice "github.com/magabrotheeeer/users-api/internal/services/users"
)

// Deps зависимости маршрутов.
type Deps struct {
	Users          *userservice.Service
	Location       *locationservice.Service
	Auth           *authservice.AuthService
	Health         health.Checker
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	RateLimit      config.RateLimit
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware(d.Metrics),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, d.RateLimit))

		// Открытые конечные точки
		r.Get("/health", health.New(logger, d.Health).ServeHTTP)
		r.Post("/login", login.New(logger, d.Auth).ServeHTTP)
		r.Get("/users", count.New(logger, d.Users).ServeHTTP)
		r.Post("/users", create.New(logger, d.Users).ServeHTTP)
		r.Get("/users/by_location", bylocation.New(logger, d.Location).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))
			r.Get("/users/{id}", read.New(logger, d.Users).ServeHTTP)
			r.Patch("/users", update.New(logger, d.Users).ServeHTTP)
			r.Patch("/users/{id}", update.New(logger, d.Users).ServeHTTP)
		})
	})

	r.Handle("/metrics", d.MetricsHandler)
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
