package marketplace_api_client

import (
	"encoding/json"
	"propertify-view-service/internal/core/domain"
	"time"
)

// flatPageResponse - старый формат списков: метаданные лежат рядом с данными.
type flatPageResponse struct {
	Data    []domain.Record `json:"data"`
	Objects []domain.Record `json:"objects"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Limit   int             `json:"limit"`
}

type commentsResponse struct {
	Data []commentResponse `json:"data"`
}

type commentResponse struct {
	ID        string          `json:"_id"`
	AltID     string          `json:"id"`
	ParentID  *string         `json:"parentId"`
	PostID    string          `json:"postId"`
	Author    json.RawMessage `json:"author"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"createdAt"`
}

// author приходит либо строкой, либо вложенным объектом пользователя.
type authorResponse struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (c commentResponse) toDomain() domain.Comment {
	out := domain.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Author:    authorName(c.Author),
	}
	if out.ID == "" {
		out.ID = c.AltID
	}
	if c.ParentID != nil {
		out.ParentID = *c.ParentID
	}
	return out
}

func authorName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var a authorResponse
	if err := json.Unmarshal(raw, &a); err != nil {
		return ""
	}
	switch {
	case a.Name != "":
		return a.Name
	case a.Username != "":
		return a.Username
	default:
		return a.Email
	}
}
