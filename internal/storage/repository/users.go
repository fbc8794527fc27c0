package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/users-api/internal/lib/geo"
	"github.com/magabrotheeeer/users-api/internal/models"
)

const userColumns = `uid, email, first_name, password_hash, zip, state,
			      latitude, longitude, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var state sql.NullString
	var latitude, longitude sql.NullFloat64
	if err := row.Scan(&u.UID, &u.Email, &u.FirstName, &u.PasswordHash, &u.Zip, &state,
		&latitude, &longitude, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.State = state.String
	if latitude.Valid {
		u.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		u.Longitude = &longitude.Float64
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// CreateUser сохраняет нового пользователя. Время создания и изменения
// выставляет база данных и возвращает в user.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, email, first_name, password_hash, zip, state,
			      latitude, longitude)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Email, user.FirstName, user.PasswordHash, user.Zip,
		nullString(user.State), nullFloat(user.Latitude), nullFloat(user.Longitude),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUser перезаписывает изменяемые поля пользователя и обновляет updated_at.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email = $1, first_name = $2, zip = $3, state = $4,
			      latitude = $5, longitude = $6, updated_at = NOW()
			  WHERE uid = $7
			  RETURNING updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.FirstName, user.Zip, nullString(user.State),
		nullFloat(user.Latitude), nullFloat(user.Longitude), user.UID,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsers возвращает общее количество пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountUsersByState возвращает количество пользователей с указанным штатом.
func (s *Storage) CountUsersByState(ctx context.Context, state string) (int, error) {
	const op = "storage.CountUsersByState"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM users WHERE state = $1`
	if err := s.DB.QueryRowContext(ctx, query, state).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountUsersByZips возвращает количество пользователей, чей индекс входит в список.
func (s *Storage) CountUsersByZips(ctx context.Context, zips []string) (int, error) {
	const op = "storage.CountUsersByZips"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if len(zips) == 0 {
		return 0, nil
	}
	var count int
	query := `SELECT COUNT(*) FROM users WHERE zip = ANY($1)`
	if err := s.DB.QueryRowContext(ctx, query, zips).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListLocationsInBox возвращает координаты пользователей внутри прямоугольника.
// Точная проверка расстояния выполняется на стороне сервиса.
func (s *Storage) ListLocationsInBox(ctx context.Context, box geo.BoundingBox) ([]models.UserLocation, error) {
	const op = "storage.ListLocationsInBox"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, latitude, longitude
			  FROM users
			  WHERE latitude IS NOT NULL AND longitude IS NOT NULL
			    AND latitude BETWEEN $1 AND $2
			    AND longitude BETWEEN $3 AND $4`
	rows, err := s.DB.QueryContext(ctx, query, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.UserLocation
	for rows.Next() {
		var loc models.UserLocation
		if err = rows.Scan(&loc.UID, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, loc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
