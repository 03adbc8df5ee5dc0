package usecase

import (
	"context"
	"fmt"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
)

type ApplyRecordEventUseCase struct {
	registry *ViewSessionRegistry
}

func NewApplyRecordEventUseCase(registry *ViewSessionRegistry) *ApplyRecordEventUseCase {
	return &ApplyRecordEventUseCase{registry: registry}
}

// Execute применяет событие бэкенда об изменении записи к открытым сессиям.
func (uc *ApplyRecordEventUseCase) Execute(ctx context.Context, event domain.RecordEvent) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":  "ApplyRecordEvent",
		"resource":  event.Resource,
		"record_id": event.RecordID,
	})

	if event.Resource == "" || event.RecordID == "" {
		return fmt.Errorf("record event without resource or id: %+v", event)
	}
	switch event.Action {
	case domain.RecordActionDeleted, domain.RecordActionUpdated, domain.RecordActionCreated:
	default:
		return fmt.Errorf("unknown record action %q", event.Action)
	}

	affected := uc.registry.ApplyRecordEvent(ctx, event)
	logger.Info("Record event processed", port.Fields{"action": event.Action, "affected_sessions": affected})
	return nil
}
