package rest

import (
	"net/http"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/usecase"

	"github.com/go-chi/chi/v5"
)

func (h *ViewHandler) OpenTable(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "OpenTable"})

	var req OpenTableRequest
	if err := decodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode open table request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Resource == "" {
		WriteJSONError(w, http.StatusBadRequest, "Field 'resource' is required")
		return
	}
	if req.PageSize < 0 {
		WriteJSONError(w, http.StatusBadRequest, "Field 'pageSize' must be positive")
		return
	}

	state, err := h.state(r)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	session, err := h.registry.OpenTable(r.Context(), contextkeys.ClientIDFromContext(r.Context()), req.Resource, state, usecase.TableSessionOptions{
		SortField: req.SortField,
		SortDesc:  req.SortDesc,
		PageSize:  req.PageSize,
	})
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	RespondWithJSON(w, http.StatusCreated, TableSessionResponse{
		SessionID: session.ID,
		Resource:  session.Resource,
		View:      session.Table.View(),
	})
}

// withTable находит таблицу сессии из URL и передает ее в действие.
func (h *ViewHandler) withTable(name string, action func(w http.ResponseWriter, r *http.Request, table *usecase.RemoteTableController, logger port.LoggerPort) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
			"handler":    name,
			"session_id": sessionID,
		})

		table, err := h.registry.Table(contextkeys.ClientIDFromContext(r.Context()), sessionID)
		if err != nil {
			writeUseCaseError(w, logger, err)
			return
		}
		if err := action(w, r, table, logger); err != nil {
			writeUseCaseError(w, logger, err)
			return
		}
		RespondWithJSON(w, http.StatusOK, table.View())
	}
}

func (h *ViewHandler) GetTable() http.HandlerFunc {
	return h.withTable("GetTable", func(http.ResponseWriter, *http.Request, *usecase.RemoteTableController, port.LoggerPort) error {
		return nil
	})
}

func (h *ViewHandler) SortTable() http.HandlerFunc {
	return h.withTable("SortTable", func(w http.ResponseWriter, r *http.Request, table *usecase.RemoteTableController, logger port.LoggerPort) error {
		var req SortRequest
		if err := decodeJSONBody(r, &req); err != nil || req.Column == "" {
			return badRequest("Field 'column' is required")
		}
		return table.SetSort(req.Column)
	})
}

func (h *ViewHandler) SearchTable() http.HandlerFunc {
	return h.withTable("SearchTable", func(w http.ResponseWriter, r *http.Request, table *usecase.RemoteTableController, logger port.LoggerPort) error {
		var req SearchRequest
		if err := decodeJSONBody(r, &req); err != nil {
			return badRequest("Invalid request body")
		}
		return table.SetSearch(req.Term)
	})
}

func (h *ViewHandler) SetTablePage() http.HandlerFunc {
	return h.withTable("SetTablePage", func(w http.ResponseWriter, r *http.Request, table *usecase.RemoteTableController, logger port.LoggerPort) error {
		var req PageRequest
		if err := decodeJSONBody(r, &req); err != nil || req.Index == nil {
			return badRequest("Field 'index' is required")
		}
		return table.SetPage(*req.Index)
	})
}

func (h *ViewHandler) SetTablePageSize() http.HandlerFunc {
	return h.withTable("SetTablePageSize", func(w http.ResponseWriter, r *http.Request, table *usecase.RemoteTableController, logger port.LoggerPort) error {
		var req PageSizeRequest
		if err := decodeJSONBody(r, &req); err != nil || req.Size == nil {
			return badRequest("Field 'size' is required")
		}
		return table.SetPageSize(*req.Size)
	})
}

func (h *ViewHandler) RefreshTable() http.HandlerFunc {
	return h.withTable("RefreshTable", func(w http.ResponseWriter, r *http.Request, table *usecase.RemoteTableController, logger port.LoggerPort) error {
		return table.Refresh()
	})
}

func (h *ViewHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler":    "CloseView",
		"session_id": sessionID,
	})

	if err := h.registry.Close(contextkeys.ClientIDFromContext(r.Context()), sessionID); err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
