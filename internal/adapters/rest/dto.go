package rest

import "propertify-view-service/internal/core/domain"

type SignInRequest struct {
	Token string `json:"token"`
}

type PreferencesRequest struct {
	Theme         *string `json:"theme"`
	MenuCollapsed *bool   `json:"menuCollapsed"`
}

type OpenTableRequest struct {
	Resource  string `json:"resource"`
	SortField string `json:"sortField"`
	SortDesc  bool   `json:"sortDesc"`
	PageSize  int    `json:"pageSize"`
}

type SortRequest struct {
	Column string `json:"column"`
}

type SearchRequest struct {
	Term string `json:"term"`
}

type PageRequest struct {
	Index *int `json:"index"`
}

type PageSizeRequest struct {
	Size *int `json:"size"`
}

type TableSessionResponse struct {
	SessionID string           `json:"sessionId"`
	Resource  string           `json:"resource"`
	View      domain.TableView `json:"view"`
}

type FeedSessionResponse struct {
	SessionID string          `json:"sessionId"`
	Resource  string          `json:"resource"`
	View      domain.FeedView `json:"view"`
}

// FeedActionResponse - ответ на действие, которое может ничего не изменить.
type FeedActionResponse struct {
	Changed bool            `json:"changed"`
	View    domain.FeedView `json:"view"`
}

type CommentThreadResponse struct {
	PostID   string               `json:"postId"`
	Count    int                  `json:"count"`
	Comments []domain.CommentNode `json:"comments"`
}
