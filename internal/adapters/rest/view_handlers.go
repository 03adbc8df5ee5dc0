package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"propertify-view-service/internal/adapters/notifier"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/usecase"
	"time"

	"github.com/go-chi/chi/v5"
)

const sseKeepAliveInterval = 15 * time.Second

// ViewHandler обслуживает сессии таблиц и лент и их поток событий.
type ViewHandler struct {
	registry *usecase.ViewSessionRegistry
	appState *usecase.AppStateStore
	notifier *notifier.SSENotifier

	keepAlive time.Duration
}

func NewViewHandler(registry *usecase.ViewSessionRegistry, appState *usecase.AppStateStore, notifier *notifier.SSENotifier) *ViewHandler {
	return &ViewHandler{
		registry:  registry,
		appState:  appState,
		notifier:  notifier,
		keepAlive: sseKeepAliveInterval,
	}
}

func (h *ViewHandler) state(r *http.Request) (*usecase.AppStateContainer, error) {
	return h.appState.ForClient(r.Context(), contextkeys.ClientIDFromContext(r.Context()))
}

// currentView возвращает актуальное состояние сессии любого типа.
func (h *ViewHandler) currentView(clientID, sessionID string) (string, any, error) {
	table, err := h.registry.Table(clientID, sessionID)
	if err == nil {
		return port.EventTableUpdated, table.View(), nil
	}
	if !errors.Is(err, domain.ErrSessionKind) {
		return "", nil, err
	}
	feed, err := h.registry.Feed(clientID, sessionID)
	if err != nil {
		return "", nil, err
	}
	return port.EventFeedUpdated, feed.View(), nil
}

// SubscribeToView - обработчик для GET /api/v1/views/{sessionID}/events
func (h *ViewHandler) SubscribeToView(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	clientID := contextkeys.ClientIDFromContext(r.Context())
	handlerLogger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler":    "SubscribeToView",
		"session_id": sessionID,
	})

	// Подписка до чтения состояния, чтобы не потерять изменение между ними
	clientChan := h.notifier.AddClient(sessionID)
	defer h.notifier.RemoveClient(sessionID, clientChan)

	eventType, view, err := h.currentView(clientID, sessionID)
	if err != nil {
		writeUseCaseError(w, handlerLogger, err)
		return
	}
	initial, err := encodeSSE(eventType, view)
	if err != nil {
		handlerLogger.Error("Failed to encode initial view", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to encode view")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	handlerLogger.Info("New client subscribing to view events", nil)
	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	_, _ = w.Write(initial)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-clientChan:
			if !ok {
				handlerLogger.Debug("View stream closed by server", nil)
				return
			}
			if _, err := w.Write(data); err != nil {
				handlerLogger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// Открытый поток держит сессию живой
			if !h.registry.Owns(clientID, sessionID) {
				return
			}
			if _, err := fmt.Fprintf(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			handlerLogger.Info("SSE client disconnected", nil)
			return
		}
	}
}

func encodeSSE(eventType string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload)), nil
}
