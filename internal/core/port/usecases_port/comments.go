package usecases_port

import (
	"context"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
)

type GetCommentThreadUseCasePort interface {
	Execute(ctx context.Context, postID string, tokens port.TokenSource) ([]domain.CommentNode, error)
}
