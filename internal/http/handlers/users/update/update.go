// Package update реализует HTTP-обработчик частичного изменения пользователя.
//
// PATCH /users меняет пользователя из токена, PATCH /users/{id} допускается
// только для собственного UID. Меняются только переданные поля.
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

	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/users-api/internal/http/response"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/models"
)

// Request — тело запроса на изменение.
type Request struct {
	User *models.UpdateUserRequest `json:"user"`
}

// Handler обрабатывает запросы на изменение пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики изменения пользователя.
type Service interface {
	Update(ctx context.Context, userUID string, req models.UpdateUserRequest) (*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Изменить пользователя
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string false "UID пользователя, должен совпадать с пользователем токена"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Чужой пользователь"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} map[string][]string "Ошибки валидации по полям"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users [patch]
// @Router /users/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	currentUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user uid not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	if id := chi.URLParam(r, "id"); id != "" && id != currentUID {
		log.Info("attempt to update another user", slog.String("id", id))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if req.User == nil {
		log.Info("user param is missing")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("param is missing or the value is empty: user"))
		return
	}

	user, err := h.service.Update(r.Context(), currentUID, *req.User)
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	case errors.Is(err, models.ErrUserNotFound):
		log.Info("user not found", slog.String("uid", currentUID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case err != nil:
		log.Error("failed to update user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update user"))
		return
	}

	log.Info("user updated", slog.String("uid", user.UID))
	render.JSON(w, r, user)
}
