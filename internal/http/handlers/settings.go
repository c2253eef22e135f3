package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/leadchat/leadchat-platform/internal/settings"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// SettingsHandler serves the widget configuration endpoints.
type SettingsHandler struct {
	store  *settings.Store
	logger *logging.Logger
}

func NewSettingsHandler(store *settings.Store, logger *logging.Logger) *SettingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SettingsHandler{store: store, logger: logger.Component("settings_handler")}
}

// Get returns the full current settings record.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Current())
}

// Update merges a partial settings document into the current record.
// The merged record is returned; the webhook push outcome never fails
// the request.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var partial settings.Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil || len(partial) == 0 {
		writeError(w, http.StatusBadRequest, "No settings provided")
		return
	}

	merged, outcome, err := h.store.Update(r.Context(), partial)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if outcome.Status == "failed" {
		h.logger.Warn("settings webhook push failed", "error", outcome.Error)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Settings updated successfully",
		"settings": merged,
	})
}

// Reset restores the compiled-in defaults.
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	restored := h.store.Reset(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Settings reset successfully",
		"settings": restored,
	})
}
