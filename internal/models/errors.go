package models

import "errors"

// Общие ошибки доменного слоя.
var (
	// ErrNotFound - запись истории для пользователя отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrCorruptState - запись существует, но не проходит разбор/валидацию.
	ErrCorruptState = errors.New("corrupt story state")
	// ErrInvalidInput - некорректные входные данные запроса.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrScrapeFailed - не удалось собрать ни одного источника тем.
	ErrScrapeFailed = errors.New("theme scrape failed")
)

// Коды ошибок API.
const (
	ErrCodeBadRequest      = 40001
	ErrCodeNotFound        = 40401
	ErrCodeTooManyRequests = 42901
	ErrCodeInternal        = 50001
	ErrCodeScrapeFailed    = 50201
)

// ErrorResponse - стандартное тело ответа об ошибке.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Error   string `json:"error"`
}
