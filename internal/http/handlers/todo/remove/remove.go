// Package remove реализует HTTP-обработчик удаления записи списка дел.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/velikanovdm/todo-planner/internal/http/middlewarectx"
	"github.com/velikanovdm/todo-planner/internal/http/response"
	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	todoservice "github.com/velikanovdm/todo-planner/internal/services/todo"
)

// Service описывает интерфейс бизнес-логики удаления записи.
type Service interface {
	Remove(ctx context.Context, userUID, id string) error
}

// Handler обрабатывает HTTP-запросы удаления записи.
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
// @Summary Удаление записи
// @Description Удаляет запись пользователя из списка дел.
// @Tags Todo
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID записи"
// @Success 200 {object} response.Response "Запись удалена"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /todos/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.todo.remove"

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

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing todo id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing todo id"))
		return
	}

	if err := h.todos.Remove(r.Context(), userUID, id); err != nil {
		if errors.Is(err, todoservice.ErrTodoNotFound) {
			log.Info("todo not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("todo not found"))
			return
		}
		log.Error("failed to remove todo", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to remove todo"))
		return
	}

	log.Info("todo removed", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
