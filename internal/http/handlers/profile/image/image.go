// Package image реализует HTTP-обработчик выдачи аватара пользователя.
//
// Локально сохраненные файлы отдаются с диска; аватары, хранящиеся
// у внешнего провайдера (абсолютные ссылки), отдаются редиректом.
package image

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/velikanovdm/todo-planner/internal/http/middlewarectx"
	"github.com/velikanovdm/todo-planner/internal/http/response"
	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	"github.com/velikanovdm/todo-planner/internal/lib/upload"
	"github.com/velikanovdm/todo-planner/internal/models"
	authservice "github.com/velikanovdm/todo-planner/internal/services/auth"
)

// Service описывает интерфейс получения профиля пользователя.
type Service interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Resolver возвращает путь к файлу аватара на диске.
type Resolver interface {
	Resolve(stored string) string
}

// Handler обрабатывает HTTP-запросы выдачи аватара.
type Handler struct {
	log      *slog.Logger
	auth     Service
	resolver Resolver
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, auth Service, resolver Resolver) *Handler {
	return &Handler{
		log:      log,
		auth:     auth,
		resolver: resolver,
	}
}

// ServeHTTP godoc
// @Summary Аватар пользователя
// @Description Возвращает файл аватара либо редирект на внешний URL.
// @Tags Profile
// @Produce  octet-stream
// @Security BearerAuth
// @Success 200 "Файл аватара"
// @Success 302 "Редирект на внешний аватар"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь или аватар не найден"
// @Router /users/profile-image [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.image"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("no user uid in request context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.auth.GetUser(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, authservice.ErrUserNotFound) {
			log.Info("user not found", slog.String("uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to get user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get user"))
		return
	}

	if user.ProfileImage == "" {
		log.Info("user has no profile image", slog.String("uid", userUID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("profile image not found"))
		return
	}

	if upload.IsExternal(user.ProfileImage) {
		http.Redirect(w, r, user.ProfileImage, http.StatusFound)
		return
	}

	http.ServeFile(w, r, h.resolver.Resolve(user.ProfileImage))
}
