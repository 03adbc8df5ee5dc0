package rabbitmq_adapter

import (
	"propertify-view-service/internal/core/domain"
	"strings"
)

// RecordEventDTO - сообщение бэкенда маркетплейса об изменении записи.
// Если resource/action не заданы в теле, они берутся из ключа маршрутизации <resource>.<action>.
type RecordEventDTO struct {
	Resource string `json:"resource"`
	RecordID string `json:"record_id"`
	Action   string `json:"action"`
}

func (d RecordEventDTO) toDomain(routingKey string) domain.RecordEvent {
	ev := domain.RecordEvent{Resource: d.Resource, RecordID: d.RecordID, Action: d.Action}
	if ev.Resource == "" || ev.Action == "" {
		if resource, action, ok := strings.Cut(routingKey, "."); ok {
			if ev.Resource == "" {
				ev.Resource = resource
			}
			if ev.Action == "" {
				ev.Action = action
			}
		}
	}
	return ev
}
