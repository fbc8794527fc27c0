// Package create реализует HTTP-обработчик регистрации пользователя.
//
// Handler принимает JSON вида {"user": {...}}, передаёт данные в сервис и
// возвращает созданного пользователя. Ошибки полей возвращаются со статусом 422
// в виде {"поле": ["сообщение", ...]}.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/users-api/internal/http/response"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/models"
)

// Request — тело запроса на регистрацию.
type Request struct {
	User *models.CreateUserRequest `json:"user"`
}

// Handler управляет HTTP-запросами на регистрацию.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя. Координаты и штат определяются по индексу, если не переданы.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 201 {object} models.User
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} map[string][]string "Ошибки валидации по полям"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	user, err := h.service.Create(r.Context(), *req.User)
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	case err != nil:
		log.Error("failed to create user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create user"))
		return
	}

	log.Info("user created", slog.String("uid", user.UID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}
