package rest

import (
	"net/http"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/usecase"
)

// SessionHandler управляет состоянием приложения клиента: токен, тема, меню.
type SessionHandler struct {
	appState *usecase.AppStateStore
}

func NewSessionHandler(appState *usecase.AppStateStore) *SessionHandler {
	return &SessionHandler{appState: appState}
}

func (h *SessionHandler) state(r *http.Request) (*usecase.AppStateContainer, error) {
	return h.appState.ForClient(r.Context(), contextkeys.ClientIDFromContext(r.Context()))
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetSession"})

	state, err := h.state(r)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, state.Snapshot())
}

func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SignIn"})

	var req SignInRequest
	if err := decodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode sign in request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		WriteJSONError(w, http.StatusBadRequest, "Field 'token' is required")
		return
	}

	state, err := h.state(r)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	snapshot, err := state.SignIn(r.Context(), req.Token)
	if err != nil {
		logger.Warn("Sign in rejected", port.Fields{"error": err.Error()})
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, snapshot)
}

func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SignOut"})

	state, err := h.state(r)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	snapshot, err := state.SignOut(r.Context())
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, snapshot)
}

func (h *SessionHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "UpdatePreferences"})

	var req PreferencesRequest
	if err := decodeJSONBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Theme != nil && *req.Theme != domain.ThemeLight && *req.Theme != domain.ThemeDark {
		WriteJSONError(w, http.StatusBadRequest, "Field 'theme' must be 'light' or 'dark'")
		return
	}

	state, err := h.state(r)
	if err != nil {
		writeUseCaseError(w, logger, err)
		return
	}

	snapshot := state.Snapshot()
	if req.Theme != nil {
		if snapshot, err = state.SetTheme(r.Context(), *req.Theme); err != nil {
			writeUseCaseError(w, logger, err)
			return
		}
	}
	if req.MenuCollapsed != nil {
		if snapshot, err = state.SetMenuCollapsed(r.Context(), *req.MenuCollapsed); err != nil {
			writeUseCaseError(w, logger, err)
			return
		}
	}
	RespondWithJSON(w, http.StatusOK, snapshot)
}
