package rest

import (
	"net/http"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/port/usecases_port"
	"propertify-view-service/internal/core/usecase"

	"github.com/go-chi/chi/v5"
)

type CommentsHandler struct {
	getThreadUC usecases_port.GetCommentThreadUseCasePort
	appState    *usecase.AppStateStore
}

func NewCommentsHandler(getThreadUC usecases_port.GetCommentThreadUseCasePort, appState *usecase.AppStateStore) *CommentsHandler {
	return &CommentsHandler{getThreadUC: getThreadUC, appState: appState}
}

func (h *CommentsHandler) GetCommentThread(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler": "GetCommentThread",
		"post_id": postID,
	})

	state, err := h.appState.ForClient(r.Context(), contextkeys.ClientIDFromContext(r.Context()))
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	nodes, err := h.getThreadUC.Execute(r.Context(), postID, state)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	if nodes == nil {
		nodes = []domain.CommentNode{}
	}
	RespondWithJSON(w, http.StatusOK, CommentThreadResponse{
		PostID:   postID,
		Count:    len(nodes),
		Comments: nodes,
	})
}
