package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadchat/leadchat-platform/internal/settings"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

func newSettingsHandler(t *testing.T) (*SettingsHandler, *settings.Store) {
	t.Helper()
	store := settings.NewStore(settings.StoreConfig{Logger: logging.New("error")})
	return NewSettingsHandler(store, logging.New("error")), store
}

func TestSettingsGet_ReturnsCompleteRecord(t *testing.T) {
	h, _ := newSettingsHandler(t)

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "צ'אטבוט", body["chatTitle"])
	assert.Contains(t, body, "questions")
	assert.Contains(t, body, "webhookUrl")
}

func TestSettingsUpdate_MergesPartial(t *testing.T) {
	h, store := newSettingsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/settings",
		strings.NewReader(`{"chatTitle":"Leads","primaryColor":"#000000"}`))
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "Settings updated successfully", body["message"])

	current := store.Current()
	assert.Equal(t, "Leads", current.ChatTitle)
	assert.Equal(t, "#000000", current.PrimaryColor)
	// Untouched fields survive the merge.
	assert.Equal(t, "עוזר", current.BotName)
}

func TestSettingsUpdate_EmptyBodyRejected(t *testing.T) {
	h, _ := newSettingsHandler(t)

	for _, payload := range []string{"", "{}", "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.Update(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %q", payload)
		assert.Equal(t, "No settings provided", decodeMap(t, rec)["error"])
	}
}

func TestSettingsReset_RestoresDefaults(t *testing.T) {
	h, store := newSettingsHandler(t)

	update := httptest.NewRequest(http.MethodPost, "/api/settings",
		strings.NewReader(`{"chatTitle":"changed"}`))
	h.Update(httptest.NewRecorder(), update)
	require.Equal(t, "changed", store.Current().ChatTitle)

	rec := httptest.NewRecorder()
	h.Reset(rec, httptest.NewRequest(http.MethodPost, "/api/settings/reset", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Settings reset successfully", decodeMap(t, rec)["message"])
	assert.Equal(t, "צ'אטבוט", store.Current().ChatTitle)
}
