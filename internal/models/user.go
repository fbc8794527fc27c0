// Package models содержит доменные структуры пользователя, запросы на его
// создание и изменение, а также фильтр поиска по местоположению.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	PasswordHash string    `json:"-"`
	Zip          string    `json:"zip"`
	State        string    `json:"state,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasCoordinates сообщает, известны ли координаты пользователя.
func (u *User) HasCoordinates() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// UserLocation — минимальный набор полей для расчёта расстояния.
type UserLocation struct {
	UID       string
	Latitude  float64
	Longitude float64
}

// CreateUserRequest используется для приёма данных регистрации из JSON-запроса.
type CreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	FirstName string   `json:"first_name"`
	Password  string   `json:"password" validate:"required,min=6"`
	Zip       string   `json:"zip" validate:"required"`
	State     string   `json:"state,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// UpdateUserRequest содержит частичное изменение пользователя.
// nil означает, что поле не передано и останется прежним.
type UpdateUserRequest struct {
	Email     *string  `json:"email,omitempty"`
	FirstName *string  `json:"first_name,omitempty"`
	Zip       *string  `json:"zip,omitempty"`
	State     *string  `json:"state,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Empty сообщает, что в запросе нет ни одного поля для изменения.
func (r UpdateUserRequest) Empty() bool {
	return r.Email == nil && r.FirstName == nil && r.Zip == nil &&
		r.State == nil && r.Latitude == nil && r.Longitude == nil
}

// UserCreatedEvent публикуется в брокер после успешной регистрации.
type UserCreatedEvent struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Zip       string    `json:"zip"`
	State     string    `json:"state,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
