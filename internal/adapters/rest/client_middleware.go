package rest

import (
	"net/http"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/port"

	"github.com/google/uuid"
)

const clientIDHeader = "X-Client-ID"

// ClientIDMiddleware определяет клиента по заголовку X-Client-ID.
// EventSource в браузере не умеет слать заголовки, поэтому допускается ?clientId=.
// Если идентификатора нет, выдается новый и возвращается в ответе.
func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := r.Header.Get(clientIDHeader)
		if clientID == "" {
			clientID = r.URL.Query().Get("clientId")
		}
		if _, err := uuid.Parse(clientID); err != nil {
			clientID = uuid.NewString()
		}
		w.Header().Set(clientIDHeader, clientID)

		logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"client_id": clientID})
		ctx := contextkeys.ContextWithClientID(r.Context(), clientID)
		ctx = contextkeys.ContextWithLogger(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
