package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken возвращается при нарушении уникальности email.
	ErrEmailTaken = errors.New("email has already been taken")
	// ErrInvalidFilter возвращается при некорректных параметрах поиска по местоположению.
	ErrInvalidFilter = errors.New("invalid location filter")
)

// Сообщения валидации в формате, который ожидают клиенты API.
const (
	MsgBlank    = "can't be blank"
	MsgInvalid  = "is invalid"
	MsgTaken    = "has already been taken"
	MsgTooShort = "is too short (minimum is %s characters)"
)

// ValidationErrors хранит ошибки валидации по именам полей.
type ValidationErrors map[string][]string

// Add добавляет сообщение к полю.
func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Err возвращает nil, если ошибок нет.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+" "+strings.Join(v[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
