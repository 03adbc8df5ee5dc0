package port

import (
	"context"
	"propertify-view-service/internal/core/domain"
)

// FetchFunc - функция загрузки одной страницы, которую вызывающая сторона
// передает в контроллер таблицы или ленты.
// Ошибка возвращается как есть: контроллер сам решает, что делать с состоянием.
type FetchFunc func(ctx context.Context, req domain.PageRequest) (*domain.PageResponse, error)

// FetcherFactoryPort создает FetchFunc для именованного ресурса маркетплейса.
// tokens отдает bearer-токен клиента в момент запроса (может быть nil).
type FetcherFactoryPort interface {
	FetcherFor(resource string, tokens TokenSource) (FetchFunc, error)
}
