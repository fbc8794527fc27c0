// Package geocoder определяет координаты и штат по почтовому индексу.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/users-api/internal/config"
	"github.com/magabrotheeeer/users-api/internal/lib/geo"
)

var (
	// ErrNotFound возвращается, если индекс неизвестен сервису геокодирования.
	ErrNotFound = errors.New("zip not found")
	// ErrDisabled возвращается, когда геокодирование не настроено.
	ErrDisabled = errors.New("geocoder disabled")
)

// Location результат геокодирования индекса.
type Location struct {
	Zip       string  `json:"zip"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder определяет местоположение по индексу.
type Geocoder interface {
	Geocode(ctx context.Context, zip string) (*Location, error)
}

// Client ходит во внешний HTTP-сервис вида GET {url}?zip=...
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// New возвращает Client или Nop, если URL не задан.
func New(cfg config.Geocoder) Geocoder {
	if cfg.URL == "" {
		return Nop{}
	}
	return NewClient(cfg.URL, cfg.APIKey, cfg.Timeout)
}

// NewClient создаёт клиента сервиса геокодирования.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, zip string) (*http.Request, error) {
	query := url.Values{}
	query.Set("zip", zip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Geocode запрашивает координаты и штат для индекса.
func (c *Client) Geocode(ctx context.Context, zip string) (*Location, error) {
	const op = "geocoder.Geocode"
	req, err := c.newRequest(ctx, zip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !geo.ValidPoint(loc.Latitude, loc.Longitude) {
		return nil, fmt.Errorf("%s: %w", op, geo.ErrInvalidCoordinates)
	}
	if loc.Zip == "" {
		loc.Zip = zip
	}
	return &loc, nil
}

// Nop используется, когда сервис геокодирования не настроен.
type Nop struct{}

// Geocode всегда возвращает ErrDisabled.
func (Nop) Geocode(context.Context, string) (*Location, error) {
	return nil, ErrDisabled
}
