package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrSessionNotFound   = errors.New("view session not found")
	ErrSessionKind       = errors.New("view session has another kind")
	ErrUnknownResource   = errors.New("unknown resource")
	ErrControllerClosed  = errors.New("controller is closed")
	ErrInvalidToken      = errors.New("invalid token")
	ErrCommentNotFound   = errors.New("comment not found")
)

// APIError - ошибка уровня приложения, полученная от бэкенда маркетплейса (статус не 2xx).
// Message берется из response.data.message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace api returned %d: %s", e.Status, e.Message)
}

// NewAPIError создает ошибку, подставляя текст статуса, если бэкенд не прислал сообщение.
func NewAPIError(status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Status: status, Message: message}
}

// UserMessage возвращает человекочитаемое сообщение для уведомления пользователя.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
