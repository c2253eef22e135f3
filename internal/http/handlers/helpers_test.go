package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leadchat/leadchat-platform/internal/settings"
)

// stubSettings satisfies SettingsSource with a fixed record.
type stubSettings struct {
	st settings.Settings
}

func (s stubSettings) Current() settings.Settings { return s.st }

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
