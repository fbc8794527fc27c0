// Package users содержит бизнес-логику регистрации, чтения и изменения пользователей.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/users-api/internal/geocoder"
	"github.com/magabrotheeeer/users-api/internal/lib/geo"
	"github.com/magabrotheeeer/users-api/internal/lib/password"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/lib/validate"
	"github.com/magabrotheeeer/users-api/internal/models"
)

func userCacheKey(uid string) string {
	return "user:" + uid
}

// Repository определяет методы для работы с пользователями в хранилище.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	CountUsers(ctx context.Context) (int, error)
}

// Cache описывает методы для кеширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Geocoder определяет координаты и штат по индексу.
type Geocoder interface {
	Geocode(ctx context.Context, zip string) (*geocoder.Location, error)
}

// Publisher отправляет событие о регистрации во внешние системы.
type Publisher interface {
	PublishUserCreated(ctx context.Context, event models.UserCreatedEvent) error
}

// Metrics учитывает регистрации.
type Metrics interface {
	UserCreated()
}

// Service реализует бизнес-логику работы с пользователями, включая кеширование.
// geocoder, publisher и metrics могут быть nil.
type Service struct {
	repo      Repository
	cache     Cache
	geocoder  Geocoder
	publisher Publisher
	metrics   Metrics
	validate  *validate.Validator
	cacheTTL  time.Duration
	log       *slog.Logger
}

// Deps набор зависимостей Service.
type Deps struct {
	Repo      Repository
	Cache     Cache
	Geocoder  Geocoder
	Publisher Publisher
	Metrics   Metrics
	CacheTTL  time.Duration
	Log       *slog.Logger
}

// NewService создаёт новый экземпляр Service.
func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		cache:     d.Cache,
		geocoder:  d.Geocoder,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		validate:  validate.New(),
		cacheTTL:  d.CacheTTL,
		log:       d.Log,
	}
}

// Count возвращает общее число пользователей. Значение не кешируется:
// после регистрации счётчик должен сразу учитывать нового пользователя.
func (s *Service) Count(ctx context.Context) (int, error) {
	const op = "users.Count"
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// Create проверяет данные, сохраняет пользователя и публикует событие о регистрации.
// Ошибки полей возвращаются как models.ValidationErrors.
func (s *Service) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	const op = "users.Create"
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.Zip = strings.TrimSpace(req.Zip)
	req.State = strings.TrimSpace(req.State)

	verrs := models.ValidationErrors{}
	if err := s.validate.Struct(req); err != nil {
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	validateCoordinates(verrs, req.Latitude, req.Longitude)

	if _, bad := verrs["email"]; !bad {
		taken, err := s.emailTaken(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if taken {
			verrs.Add("email", models.MsgTaken)
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		UID:          uuid.NewString(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		PasswordHash: hash,
		Zip:          req.Zip,
		State:        req.State,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	if !user.HasCoordinates() || user.State == "" {
		s.resolveLocation(ctx, user, !user.HasCoordinates(), user.State == "")
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil, models.ValidationErrors{"email": {models.MsgTaken}}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new user", slog.String("op", op), slog.String("uid", user.UID))

	if err := s.cache.Set(ctx, userCacheKey(user.UID), user, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("op", op), sl.Err(err))
	}
	if s.metrics != nil {
		s.metrics.UserCreated()
	}
	if s.publisher != nil {
		event := models.UserCreatedEvent{
			UID:       user.UID,
			Email:     user.Email,
			Zip:       user.Zip,
			State:     user.State,
			CreatedAt: user.CreatedAt,
		}
		if err := s.publisher.PublishUserCreated(ctx, event); err != nil {
			s.log.Warn("failed to publish user.created", slog.String("op", op), sl.Err(err))
		}
	}
	return user, nil
}

// Get возвращает пользователя по UID, используя кеш или репозиторий.
func (s *Service) Get(ctx context.Context, userUID string) (*models.User, error) {
	const op = "users.Get"
	var cached models.User
	found, err := s.cache.Get(ctx, userCacheKey(userUID), &cached)
	if err != nil {
		s.log.Warn("failed to read user from cache", slog.String("op", op), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, userCacheKey(userUID), user, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("op", op), sl.Err(err))
	}
	return user, nil
}

// Update меняет только переданные поля. Изменённый индекс геокодируется заново,
// если координаты не переданы в том же запросе.
func (s *Service) Update(ctx context.Context, userUID string, req models.UpdateUserRequest) (*models.User, error) {
	const op = "users.Update"
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Empty() {
		return user, nil
	}

	verrs := models.ValidationErrors{}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		switch {
		case email == "":
			verrs.Add("email", models.MsgBlank)
		case !s.validate.Email(email):
			verrs.Add("email", models.MsgInvalid)
		case email != user.Email:
			taken, err := s.emailTaken(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if taken {
				verrs.Add("email", models.MsgTaken)
			}
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}

	zipChanged := false
	if req.Zip != nil {
		zip := strings.TrimSpace(*req.Zip)
		if zip == "" {
			verrs.Add("zip", models.MsgBlank)
		}
		zipChanged = zip != user.Zip
		user.Zip = zip
	}
	if req.State != nil {
		user.State = strings.TrimSpace(*req.State)
	}
	if req.Latitude != nil {
		user.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		user.Longitude = req.Longitude
	}
	validateCoordinates(verrs, user.Latitude, user.Longitude)

	if err := verrs.Err(); err != nil {
		return nil, err
	}

	coordsSupplied := req.Latitude != nil || req.Longitude != nil
	if zipChanged && !coordsSupplied {
		s.resolveLocation(ctx, user, true, req.State == nil)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil, models.ValidationErrors{"email": {models.MsgTaken}}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("updated user", slog.String("op", op), slog.String("uid", user.UID))

	if err := s.cache.Set(ctx, userCacheKey(user.UID), user, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("op", op), sl.Err(err))
	}
	return user, nil
}

func (s *Service) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, models.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// resolveLocation дополняет координаты и штат по индексу. Ошибка геокодирования
// не мешает сохранению пользователя. Если координаты запрошены, но не найдены,
// прежние координаты сбрасываются: они относятся к другому индексу.
func (s *Service) resolveLocation(ctx context.Context, user *models.User, coords, state bool) {
	const op = "users.resolveLocation"
	var (
		loc *geocoder.Location
		err = geocoder.ErrDisabled
	)
	if s.geocoder != nil {
		loc, err = s.geocoder.Geocode(ctx, user.Zip)
	}
	if err != nil {
		if coords {
			user.Latitude, user.Longitude = nil, nil
		}
		if !errors.Is(err, geocoder.ErrDisabled) {
			s.log.Warn("failed to geocode zip",
				slog.String("op", op),
				slog.String("zip", user.Zip),
				sl.Err(err),
			)
		}
		return
	}
	if coords {
		lat, lon := loc.Latitude, loc.Longitude
		user.Latitude, user.Longitude = &lat, &lon
	}
	if state && loc.State != "" {
		user.State = loc.State
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCoordinates(verrs models.ValidationErrors, lat, lon *float64) {
	if lat == nil && lon == nil {
		return
	}
	if lat == nil {
		verrs.Add("latitude", models.MsgBlank)
	} else if !geo.ValidPoint(*lat, 0) {
		verrs.Add("latitude", models.MsgInvalid)
	}
	if lon == nil {
		verrs.Add("longitude", models.MsgBlank)
	} else if !geo.ValidPoint(0, *lon) {
		verrs.Add("longitude", models.MsgInvalid)
	}
}
