package port

import (
	"context"
	"propertify-view-service/internal/core/domain"
)

// TokenSource отдает текущий bearer-токен. Пустая строка - токена нет.
type TokenSource interface {
	Token() string
}

// TokenDecoderPort извлекает данные пользователя из bearer-токена.
// Подпись не проверяется: это делает бэкенд маркетплейса.
type TokenDecoderPort interface {
	Decode(ctx context.Context, token string) (*domain.UserClaims, error)
}
