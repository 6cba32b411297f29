// Package logout реализует HTTP-обработчик выхода пользователя.
//
// Локальные токены не отзываются; если пользователь входил через внешнего
// провайдера, его сессия у провайдера завершается, а тело ответа провайдера
// возвращается клиенту без изменений.
package logout

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
	authservice "github.com/velikanovdm/todo-planner/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, userUID string) (string, error)
}

// Handler обрабатывает HTTP-запросы выхода.
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
// @Summary Выход пользователя
// @Description Завершает сессию у внешнего провайдера, если она есть. Локальный JWT действует до истечения срока.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Выход выполнен"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 502 {object} response.ErrorResponse "Сбой обмена с провайдером"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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

	providerBody, err := h.auth.Logout(r.Context(), userUID)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrUserNotFound):
			log.Info("user not found", slog.String("uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, authservice.ErrExternalAuth):
			log.Error("external provider failure", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("external provider logout failed"))
		default:
			log.Error("logout failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to logout"))
		}
		return
	}

	log.Info("logout success", slog.String("uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"provider_response": providerBody,
	}))
}
