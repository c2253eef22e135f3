package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/leadchat/leadchat-platform/internal/settings"
)

// SettingsSource provides the current complete settings record.
type SettingsSource interface {
	Current() settings.Settings
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
