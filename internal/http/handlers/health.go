package handlers

import (
	"net/http"
	"time"

	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// HealthHandler serves liveness and debug endpoints.
type HealthHandler struct {
	settings SettingsSource
	store    conversation.Store
	logger   *logging.Logger
}

func NewHealthHandler(settings SettingsSource, store conversation.Store, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{settings: settings, store: store, logger: logger.Component("health_handler")}
}

// Health reports process liveness and whether an OpenAI key is set.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.settings.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"settings_configured": st.OpenAIAPIKey != "",
	})
}

// Conversations lists active conversation identifiers. Debug surface.
func (h *HealthHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.IDs(r.Context())
	if err != nil {
		h.logger.Error("conversation listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active_conversations": len(ids),
		"conversations":        ids,
	})
}
