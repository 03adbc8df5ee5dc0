package port

import (
	"context"
	"propertify-view-service/internal/core/domain"
)

// CommentSourcePort загружает все комментарии поста плоским списком.
type CommentSourcePort interface {
	ListComments(ctx context.Context, postID string, tokens TokenSource) ([]domain.Comment, error)
}
