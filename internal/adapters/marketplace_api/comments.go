package marketplace_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"propertify-view-service/internal/constants"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
)

// CommentSource загружает комментарии поста плоским списком.
type CommentSource struct {
	client *Client
}

func NewCommentSource(client *Client) *CommentSource {
	return &CommentSource{client: client}
}

func (s *CommentSource) ListComments(ctx context.Context, postID string, tokens port.TokenSource) ([]domain.Comment, error) {
	clientLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "CommentSource",
		"method":    "ListComments",
		"post_id":   postID,
	})

	path := fmt.Sprintf(constants.CommentsPath, url.PathEscape(postID))
	resp, err := s.client.Request(ctx, http.MethodGet, path, RequestOptions{Token: tokenOf(tokens)})
	if err != nil {
		return nil, err
	}

	// Эндпоинт отдает либо массив, либо {data: [...]}.
	var items []commentResponse
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		var wrapped commentsResponse
		if err2 := json.Unmarshal(resp.Data, &wrapped); err2 != nil {
			clientLogger.Error("Failed to decode comments", err2, nil)
			return nil, fmt.Errorf("failed to decode comments: %w", err2)
		}
		items = wrapped.Data
	}

	result := make([]domain.Comment, 0, len(items))
	for _, item := range items {
		result = append(result, item.toDomain())
	}
	clientLogger.Debug("Comments loaded", port.Fields{"count": len(result)})
	return result, nil
}
