// Package list реализует HTTP-обработчик получения списка дел пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/velikanovdm/todo-planner/internal/http/middlewarectx"
	"github.com/velikanovdm/todo-planner/internal/http/response"
	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	"github.com/velikanovdm/todo-planner/internal/models"
)

// Service описывает интерфейс бизнес-логики получения списка.
type Service interface {
	List(ctx context.Context, userUID string) ([]*models.Todo, error)
}

// Handler обрабатывает HTTP-запросы получения списка.
type Handler struct {
	log   *slog.Logger
	todos Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, todos Service) *Handler {
	return &Handler{
		log:   log,
		todos: todos,
	}
}

// ServeHTTP godoc
// @Summary Список дел
// @Description Возвращает все записи списка дел пользователя.
// @Tags Todo
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список записей"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /todos [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.todo.list"

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

	todos, err := h.todos.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list todos", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list todos"))
		return
	}

	items := make([]map[string]any, 0, len(todos))
	for _, t := range todos {
		items = append(items, map[string]any{
			"id":         t.ID,
			"title":      t.Title,
			"done":       t.Done,
			"created_at": t.CreatedAt,
		})
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"todos": items,
	}))
}
