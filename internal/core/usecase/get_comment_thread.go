package usecase

import (
	"context"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
)

type GetCommentThreadUseCase struct {
	source port.CommentSourcePort
}

func NewGetCommentThreadUseCase(source port.CommentSourcePort) *GetCommentThreadUseCase {
	return &GetCommentThreadUseCase{source: source}
}

// Execute загружает комментарии поста и раскладывает их в дерево (обход в глубину).
func (uc *GetCommentThreadUseCase) Execute(ctx context.Context, postID string, tokens port.TokenSource) ([]domain.CommentNode, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetCommentThread",
		"post_id":  postID,
	})

	comments, err := uc.source.ListComments(ctx, postID, tokens)
	if err != nil {
		logger.Error("Failed to load comments", err, nil)
		return nil, err
	}

	tree := domain.NewCommentTree(comments)
	nodes := tree.Flatten()
	logger.Debug("Comment thread built", port.Fields{"comments": len(comments), "nodes": len(nodes)})
	return nodes, nil
}
