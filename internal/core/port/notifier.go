package port

import (
	"context"
)

// Типы событий представления.
const (
	EventTableUpdated = "table.updated"
	EventFeedUpdated  = "feed.updated"
	EventViewError    = "view.error"
	EventViewClosed   = "view.closed"
)

// ViewEvent - событие, которое мы отправляем подписчикам сессии представления.
type ViewEvent struct {
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
	Data      any    `json:"data"`
}

// NotifierPort - контракт для отправки обновлений представления в реальном времени.
type NotifierPort interface {
	Notify(ctx context.Context, event ViewEvent)
}
