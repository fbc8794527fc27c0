// Package bylocation реализует HTTP-обработчик GET /users/by_location.
//
// Учитывается одно семейство параметров: state, затем zip, затем lat_long
// с необязательным radius (км). Без параметров возвращается общее число пользователей.
package bylocation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/users-api/internal/http/response"
	"github.com/magabrotheeeer/users-api/internal/lib/geo"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/models"
)

// Handler считает пользователей по местоположению.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс подсчёта пользователей по фильтру.
type Service interface {
	CountByLocation(ctx context.Context, filter models.LocationFilter) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Количество пользователей по местоположению
// @Tags Users
// @Produce  json
// @Param state query string false "Код штата"
// @Param zip query string false "Индексы через запятую"
// @Param lat_long[] query []number false "Широта и долгота" collectionFormat(multi)
// @Param radius query number false "Радиус в км"
// @Success 200 {object} response.UserCountResponse
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/by_location [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.bylocation"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		log.Info("invalid location filter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	n, err := h.service.CountByLocation(r.Context(), filter)
	switch {
	case errors.Is(err, models.ErrInvalidFilter):
		log.Info("invalid location filter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to count users by location", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not count users"))
		return
	}

	log.Debug("users counted", slog.String("kind", string(filter.Kind())), slog.Int("count", n))
	render.JSON(w, r, response.UserCount(n))
}

// ParseFilter разбирает параметры запроса. Разбирается только семейство
// с наивысшим приоритетом, остальные параметры игнорируются.
func ParseFilter(q url.Values) (models.LocationFilter, error) {
	if state := strings.TrimSpace(q.Get("state")); state != "" {
		return models.LocationFilter{State: state}, nil
	}

	if raw := q.Get("zip"); strings.TrimSpace(raw) != "" {
		zips, err := geo.ParseZips(raw)
		if err != nil {
			return models.LocationFilter{}, err
		}
		return models.LocationFilter{Zips: zips}, nil
	}

	latLong := nonBlank(q["lat_long[]"])
	if len(latLong) == 0 {
		latLong = nonBlank(q["lat_long"])
	}
	if len(latLong) == 0 {
		return models.LocationFilter{}, nil
	}

	lat, lon, err := geo.ParseLatLong(latLong)
	if err != nil {
		return models.LocationFilter{}, err
	}
	filter := models.LocationFilter{Point: &models.Point{Latitude: lat, Longitude: lon}}
	if raw := q.Get("radius"); strings.TrimSpace(raw) != "" {
		radius, err := geo.ParseRadius(raw)
		if err != nil {
			return models.LocationFilter{}, err
		}
		filter.RadiusKm = &radius
	}
	return filter, nil
}

func nonBlank(values []string) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			res = append(res, v)
		}
	}
	return res
}
