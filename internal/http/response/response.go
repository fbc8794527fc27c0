// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import "github.com/magabrotheeeer/users-api/internal/models"

// ErrorResponse — структура ошибки, в том числе для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// UserCountResponse — ответ GET /users и GET /users/by_location.
type UserCountResponse struct {
	UserCount int `json:"user_count" example:"2"`
}

// TokenResponse — ответ POST /login.
type TokenResponse struct {
	Token string `json:"token"`
}

// HealthResponse — ответ GET /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

const (
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// UserCount возвращает ответ с числом пользователей.
func UserCount(n int) UserCountResponse {
	return UserCountResponse{UserCount: n}
}

// ValidationError возвращает тело ответа 422: поле → список сообщений.
func ValidationError(errs models.ValidationErrors) map[string][]string {
	return errs
}
