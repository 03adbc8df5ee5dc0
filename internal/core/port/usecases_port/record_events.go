package usecases_port

import (
	"context"
	"propertify-view-service/internal/core/domain"
)

type ApplyRecordEventUseCasePort interface {
	Execute(ctx context.Context, event domain.RecordEvent) error
}
