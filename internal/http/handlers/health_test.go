package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/internal/settings"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

func TestHealth_ReportsConfigurationState(t *testing.T) {
	withKey := settings.Defaults()
	withKey.OpenAIAPIKey = "sk-test"

	tests := []struct {
		name string
		st   settings.Settings
		want bool
	}{
		{"key configured", withKey, true},
		{"key missing", settings.Defaults(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(stubSettings{st: tt.st}, conversation.NewMemoryStore(), logging.New("error"))
			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			body := decodeMap(t, rec)
			assert.Equal(t, "healthy", body["status"])
			assert.Equal(t, tt.want, body["settings_configured"])
			assert.NotEmpty(t, body["timestamp"])
		})
	}
}

func TestConversations_ListsActiveIDs(t *testing.T) {
	store := conversation.NewMemoryStore()
	require.NoError(t, store.Append(context.Background(), "conv_a",
		conversation.Message{Role: conversation.RoleUser, Content: "hi"}))
	require.NoError(t, store.Append(context.Background(), "conv_b",
		conversation.Message{Role: conversation.RoleUser, Content: "hi"}))

	h := NewHealthHandler(stubSettings{st: settings.Defaults()}, store, logging.New("error"))
	rec := httptest.NewRecorder()
	h.Conversations(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, float64(2), body["active_conversations"])
	assert.Equal(t, []any{"conv_a", "conv_b"}, body["conversations"])
}
