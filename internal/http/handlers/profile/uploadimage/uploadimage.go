// Package uploadimage реализует HTTP-обработчик загрузки аватара пользователя.
//
// Файл принимается multipart-формой в поле profile_image, сохраняется
// под уникальным именем и привязывается к профилю пользователя.
package uploadimage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/velikanovdm/todo-planner/internal/http/middlewarectx"
	"github.com/velikanovdm/todo-planner/internal/http/response"
	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	authservice "github.com/velikanovdm/todo-planner/internal/services/auth"
)

// 5 МБ на файл аватара.
const maxUploadSize = 5 << 20

// Service описывает интерфейс бизнес-логики привязки аватара.
type Service interface {
	SetProfileImage(ctx context.Context, userUID, profileImage string) error
}

// Uploader сохраняет файл и возвращает имя для хранения в профиле.
type Uploader interface {
	Save(originalName string, src io.Reader) (string, error)
}

// Handler обрабатывает HTTP-запросы загрузки аватара.
type Handler struct {
	log      *slog.Logger
	auth     Service
	uploader Uploader
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, auth Service, uploader Uploader) *Handler {
	return &Handler{
		log:      log,
		auth:     auth,
		uploader: uploader,
	}
}

// ServeHTTP godoc
// @Summary Загрузка аватара
// @Description Сохраняет файл аватара и привязывает его к профилю пользователя.
// @Tags Profile
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param profile_image formData file true "Файл аватара"
// @Success 200 {object} response.Response "Аватар сохранен"
// @Failure 400 {object} response.ErrorResponse "Файл не передан или слишком велик"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/profile-image [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.uploadimage"

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

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("profile_image")
	if err != nil {
		log.Error("missing profile_image file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing profile_image file"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	storedName, err := h.uploader.Save(header.Filename, file)
	if err != nil {
		log.Error("failed to save file", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to save file"))
		return
	}

	if err := h.auth.SetProfileImage(r.Context(), userUID, storedName); err != nil {
		if errors.Is(err, authservice.ErrUserNotFound) {
			log.Info("user not found", slog.String("uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to update profile image", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update profile image"))
		return
	}

	log.Info("profile image updated", slog.String("uid", userUID), slog.String("file", storedName))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"profile_image": storedName,
	}))
}
