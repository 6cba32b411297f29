// Package social реализует HTTP-обработчик входа через внешнего провайдера.
//
// Обработчик принимает код авторизации из query-параметра code (redirect uri
// провайдера указывает на этот маршрут) и делегирует обмен кода, запрос профиля
// и сверку с локальной учетной записью сервису аутентификации.
package social

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/velikanovdm/todo-planner/internal/http/response"
	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	"github.com/velikanovdm/todo-planner/internal/models"
	authservice "github.com/velikanovdm/todo-planner/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики социального входа.
type Service interface {
	SocialLogin(ctx context.Context, code string) (*models.User, string, error)
}

// Handler обрабатывает HTTP-запросы социального входа.
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
// @Summary Вход через внешнего провайдера
// @Description Обменивает код авторизации провайдера на локальный JWT. При первом входе создает учетную запись.
// @Tags Auth
// @Produce  json
// @Param code query string true "Код авторизации провайдера"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Не передан код авторизации"
// @Failure 502 {object} response.ErrorResponse "Сбой обмена с провайдером"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /oauth/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.social"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := r.URL.Query().Get("code")
	if code == "" {
		log.Error("missing authorization code")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing authorization code"))
		return
	}

	user, token, err := h.auth.SocialLogin(r.Context(), code)
	if err != nil {
		if errors.Is(err, authservice.ErrExternalAuth) {
			log.Error("external provider failure", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("external provider authentication failed"))
			return
		}
		log.Error("social login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to login"))
		return
	}

	log.Info("social login success", slog.String("uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"uid":      user.UID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
	}))
}
