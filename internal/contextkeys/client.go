package contextkeys

import "context"

type clientIDKeyType struct{}

var clientIDKey = clientIDKeyType{}

// ContextWithClientID помещает идентификатор клиента (вкладки браузера) в контекст
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// ClientIDFromContext извлекает идентификатор клиента из контекста
func ClientIDFromContext(ctx context.Context) string {
	if clientID, ok := ctx.Value(clientIDKey).(string); ok {
		return clientID
	}
	return ""
}
