// Package promote реализует HTTP-обработчик повышения роли пользователя до PREMIUM.
//
// Идентификатор пользователя берется из контекста запроса, куда его помещает
// JWT middleware. После повышения выдается свежий токен с новой ролью;
// старые токены продолжают действовать до истечения собственного срока.
package promote

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
	"github.com/velikanovdm/todo-planner/internal/models"
	authservice "github.com/velikanovdm/todo-planner/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики повышения роли.
type Service interface {
	PromoteToPremium(ctx context.Context, userUID string) (*models.User, string, error)
}

// Handler обрабатывает HTTP-запросы повышения роли.
type Handler struct {
	log  *slog.Logger
	auth Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, auth Service) *Handler {
	return &Handler{
		log:  log,
		auth: auth,
	}
}

// ServeHTTP godoc
// @Summary Повышение роли до PREMIUM
// @Description Повышает роль аутентифицированного пользователя и возвращает свежий JWT. Операция идемпотентна.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Роль обновлена"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/promote [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.promote"

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

	user, token, err := h.auth.PromoteToPremium(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, authservice.ErrUserNotFound) {
			log.Info("user not found", slog.String("uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("promotion failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to promote user"))
		return
	}

	log.Info("promotion success", slog.String("uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"uid":      user.UID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
	}))
}
