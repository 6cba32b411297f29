// Package update реализует HTTP-обработчик изменения записи списка дел.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/velikanovdm/todo-planner/internal/http/middlewarectx"
	"github.com/velikanovdm/todo-planner/internal/http/response"
	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	todoservice "github.com/velikanovdm/todo-planner/internal/services/todo"
)

// Request — структура входных данных для изменения записи.
type Request struct {
	Title string `json:"title" validate:"required,min=1,max=500"`
	Done  bool   `json:"done"`
}

// Service описывает интерфейс бизнес-логики изменения записи.
type Service interface {
	Update(ctx context.Context, userUID, id, title string, done bool) error
}

// Handler обрабатывает HTTP-запросы изменения записи.
type Handler struct {
	log      *slog.Logger
	todos    Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, todos Service) *Handler {
	return &Handler{
		log:      log,
		todos:    todos,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение записи
// @Description Обновляет текст и признак выполнения записи пользователя.
// @Tags Todo
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID записи"
// @Param request body Request true "Новые данные записи"
// @Success 200 {object} response.Response "Запись обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /todos/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.todo.update"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.todos.Update(r.Context(), userUID, id, req.Title, req.Done); err != nil {
		if errors.Is(err, todoservice.ErrTodoNotFound) {
			log.Info("todo not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("todo not found"))
			return
		}
		log.Error("failed to update todo", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update todo"))
		return
	}

	log.Info("todo updated", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
