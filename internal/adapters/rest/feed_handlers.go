package rest

import (
	"net/http"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/usecase"

	"github.com/go-chi/chi/v5"
)

func (h *ViewHandler) OpenFeed(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "OpenFeed"})

	query := r.URL.Query()
	resource := query.Get("resource")
	limit, err := getIntOrDefault(query, "limit", 0)
	if err != nil || limit < 0 {
		WriteJSONError(w, http.StatusBadRequest, "Parameter 'limit' must be a positive integer")
		return
	}
	if resource == "" {
		WriteJSONError(w, http.StatusBadRequest, "Parameter 'resource' is required")
		return
	}
	filters, err := ParseFeedFilters(query)
	if err != nil {
		logger.Warn("Invalid feed filters", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.state(r)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	session, err := h.registry.OpenFeed(r.Context(), contextkeys.ClientIDFromContext(r.Context()), resource, state, filters, limit)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	RespondWithJSON(w, http.StatusCreated, FeedSessionResponse{
		SessionID: session.ID,
		Resource:  session.Resource,
		View:      session.Feed.View(),
	})
}

// withFeed находит ленту сессии из URL; действие сообщает, изменило ли оно что-нибудь.
func (h *ViewHandler) withFeed(name string, action func(r *http.Request, feed *usecase.IncrementalFeedController) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
			"handler":    name,
			"session_id": sessionID,
		})

		feed, err := h.registry.Feed(contextkeys.ClientIDFromContext(r.Context()), sessionID)
		if err != nil {
			writeUseCaseError(w, logger, err)
			return
		}
		changed, err := action(r, feed)
		if err != nil {
			writeUseCaseError(w, logger, err)
			return
		}
		RespondWithJSON(w, http.StatusOK, FeedActionResponse{Changed: changed, View: feed.View()})
	}
}

func (h *ViewHandler) GetFeed() http.HandlerFunc {
	return h.withFeed("GetFeed", func(*http.Request, *usecase.IncrementalFeedController) (bool, error) {
		return false, nil
	})
}

func (h *ViewHandler) SetFeedFilters() http.HandlerFunc {
	return h.withFeed("SetFeedFilters", func(r *http.Request, feed *usecase.IncrementalFeedController) (bool, error) {
		filters, err := ParseFeedFilters(r.URL.Query())
		if err != nil {
			return false, badRequest(err.Error())
		}
		return feed.SetFilters(filters)
	})
}

func (h *ViewHandler) LoadMoreFeed() http.HandlerFunc {
	return h.withFeed("LoadMoreFeed", func(r *http.Request, feed *usecase.IncrementalFeedController) (bool, error) {
		return feed.LoadMore()
	})
}

func (h *ViewHandler) RemoveFeedItem() http.HandlerFunc {
	return h.withFeed("RemoveFeedItem", func(r *http.Request, feed *usecase.IncrementalFeedController) (bool, error) {
		return feed.RemoveItem(chi.URLParam(r, "itemID")), nil
	})
}
