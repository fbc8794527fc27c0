// Package location считает пользователей по штату, списку индексов или
// расстоянию от точки.
package location

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/users-api/internal/lib/geo"
	"github.com/magabrotheeeer/users-api/internal/models"
)

// Repository описывает выборки, нужные для подсчёта.
type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	CountUsersByState(ctx context.Context, state string) (int, error)
	CountUsersByZips(ctx context.Context, zips []string) (int, error)
	// ListLocationsInBox возвращает пользователей с координатами внутри прямоугольника.
	ListLocationsInBox(ctx context.Context, box geo.BoundingBox) ([]models.UserLocation, error)
}

// Metrics учитывает выполненные запросы по семействам фильтров.
type Metrics interface {
	LocationQuery(kind string)
}

// Service реализует подсчёт пользователей по местоположению.
type Service struct {
	repo            Repository
	metrics         Metrics
	defaultRadiusKm float64
	log             *slog.Logger
}

// NewService создаёт Service. defaultRadiusKm используется, если радиус не передан.
func NewService(repo Repository, metrics Metrics, defaultRadiusKm float64, log *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		metrics:         metrics,
		defaultRadiusKm: defaultRadiusKm,
		log:             log,
	}
}

// CountByLocation возвращает число пользователей, подходящих под фильтр.
// Из нескольких заданных семейств учитывается одно: state, затем zip, затем lat_long.
// Пустой фильтр возвращает общее число пользователей.
func (s *Service) CountByLocation(ctx context.Context, filter models.LocationFilter) (int, error) {
	const op = "location.CountByLocation"
	kind := filter.Kind()

	var (
		count int
		err   error
	)
	switch kind {
	case models.FilterState:
		count, err = s.repo.CountUsersByState(ctx, filter.State)
	case models.FilterZip:
		count, err = s.repo.CountUsersByZips(ctx, filter.Zips)
	case models.FilterRadius:
		count, err = s.countWithinRadius(ctx, *filter.Point, filter.RadiusKm)
	default:
		count, err = s.repo.CountUsers(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if s.metrics != nil {
		s.metrics.LocationQuery(string(kind))
	}
	s.log.Debug("counted users by location",
		slog.String("op", op),
		slog.String("kind", string(kind)),
		slog.Int("count", count),
	)
	return count, nil
}

func (s *Service) countWithinRadius(ctx context.Context, center models.Point, radiusKm *float64) (int, error) {
	if !geo.ValidPoint(center.Latitude, center.Longitude) {
		return 0, fmt.Errorf("%w: %w", models.ErrInvalidFilter, geo.ErrInvalidCoordinates)
	}
	radius := s.defaultRadiusKm
	if radiusKm != nil {
		radius = *radiusKm
	}
	if !geo.ValidRadius(radius) {
		return 0, fmt.Errorf("%w: %w", models.ErrInvalidFilter, geo.ErrInvalidRadius)
	}

	box := geo.BoundingBoxFor(center.Latitude, center.Longitude, radius)
	candidates, err := s.repo.ListLocationsInBox(ctx, box)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if geo.DistanceKm(center.Latitude, center.Longitude, c.Latitude, c.Longitude) <= radius {
			seen[c.UID] = struct{}{}
		}
	}
	return len(seen), nil
}
