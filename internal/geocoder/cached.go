package geocoder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/users-api/internal/lib/sl"
)

// Cache хранилище результатов геокодирования.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Cached кеширует ответы другого Geocoder. Ошибки кеша пишутся в лог
// и не прерывают запрос.
type Cached struct {
	next  Geocoder
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCached оборачивает next кешем с временем жизни ttl.
func NewCached(next Geocoder, cache Cache, ttl time.Duration, log *slog.Logger) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, log: log}
}

func cacheKey(zip string) string {
	return "geocode:" + zip
}

// Geocode возвращает значение из кеша или запрашивает его у next.
func (c *Cached) Geocode(ctx context.Context, zip string) (*Location, error) {
	const op = "geocoder.Cached.Geocode"
	var loc Location
	found, err := c.cache.Get(ctx, cacheKey(zip), &loc)
	if err != nil {
		c.log.Warn("failed to read geocode from cache",
			slog.String("op", op),
			slog.String("zip", zip),
			sl.Err(err),
		)
	}
	if found {
		return &loc, nil
	}

	res, err := c.next.Geocode(ctx, zip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.cache.Set(ctx, cacheKey(zip), res, c.ttl); err != nil {
		c.log.Warn("failed to cache geocode",
			slog.String("op", op),
			slog.String("zip", zip),
			sl.Err(err),
		)
	}
	return res, nil
}
