package port

import "context"

// LocalStoragePort - хранилище строковых значений, разделенное по scope
// (идентификатор клиента). Аналог localStorage браузера.
type LocalStoragePort interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Remove(ctx context.Context, scope, key string) error
}
