// Package todoplanner предоставляет маршруты и жизненный цикл основного приложения.
package todoplanner

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/velikanovdm/todo-planner/internal/http/handlers/auth/login"
	"github.com/velikanovdm/todo-planner/internal/http/handlers/auth/logout"
	"github.com/velikanovdm/todo-planner/internal/http/handlers/auth/promote"
	"github.com/velikanovdm/todo-planner/internal/http/handlers/auth/signup"
	"github.com/velikanovdm/todo-planner/internal/http/handlers/auth/social"
	"github.com/velikanovdm/todo-planner/internal/http/handlers/profile/image"
	"github.com/velikanovdm/todo-planner/internal/http/handlers/profile/uploadimage"
	todocreate "github.com/velikanovdm/todo-planner/internal/http/handlers/todo/create"
	todolist "github.com/velikanovdm/todo-planner/internal/http/handlers/todo/list"
	todoremove "github.com/velikanovdm/todo-planner/internal/http/handlers/todo/remove"
	todoupdate "github.com/velikanovdm/todo-planner/internal/http/handlers/todo/update"
	"github.com/velikanovdm/todo-planner/internal/http/middlewarectx"
	"github.com/velikanovdm/todo-planner/internal/lib/upload"
	authservice "github.com/velikanovdm/todo-planner/internal/services/auth"
	todoservice "github.com/velikanovdm/todo-planner/internal/services/todo"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, auth *authservice.AuthService,
	todos *todoservice.TodoService, uploads *upload.Store) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/signup", signup.New(logger, auth).ServeHTTP)
		r.Post("/login", login.New(logger, auth).ServeHTTP)
		r.Get("/oauth/callback", social.New(logger, auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Put("/users/promote", promote.New(logger, auth).ServeHTTP)
			r.Post("/logout", logout.New(logger, auth).ServeHTTP)
			r.Post("/users/profile-image", uploadimage.New(logger, auth, uploads).ServeHTTP)
			r.Get("/users/profile-image", image.New(logger, auth, uploads).ServeHTTP)
			r.Post("/todos", todocreate.New(logger, todos).ServeHTTP)
			r.Get("/todos", todolist.New(logger, todos).ServeHTTP)
			r.Put("/todos/{id}", todoupdate.New(logger, todos).ServeHTTP)
			r.Delete("/todos/{id}", todoremove.New(logger, todos).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
