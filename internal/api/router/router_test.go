package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/internal/flow"
	"github.com/leadchat/leadchat-platform/internal/gateway"
	"github.com/leadchat/leadchat-platform/internal/http/handlers"
	"github.com/leadchat/leadchat-platform/internal/settings"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

type stubRelay struct{}

func (stubRelay) Reply(context.Context, string, string, []conversation.Message) (string, error) {
	return "ok", nil
}

type stubGateway struct{}

func (stubGateway) SubmitLead(context.Context, any, string) gateway.Outcome {
	return gateway.Outcome{Status: "no_webhook"}
}

func (stubGateway) SendChatMessage(context.Context, gateway.ChatPayload, string) (*gateway.ChatReply, error) {
	return &gateway.ChatReply{Phase: "p", Type: "text", Text: "hi"}, nil
}

func (stubGateway) SubmitSummary(context.Context, any, string) gateway.Outcome {
	return gateway.Outcome{Status: "no_webhook"}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logging.New("error")
	store := settings.NewStore(settings.StoreConfig{Logger: logger})
	convStore := conversation.NewMemoryStore()
	engine := flow.NewEngine(flow.EngineConfig{
		Settings: store,
		Chat:     stubGateway{},
		Summary:  stubGateway{},
		Store:    convStore,
		Logger:   logger,
	})

	return New(&Config{
		Logger:             logger,
		Settings:           handlers.NewSettingsHandler(store, logger),
		Chat:               handlers.NewChatHandler(store, stubRelay{}, convStore, logger),
		Lead:               handlers.NewLeadHandler(stubGateway{}, store, convStore, logger),
		Widget:             handlers.NewWidgetHandler(engine, flow.NewRegistry(), logger),
		Health:             handlers.NewHealthHandler(store, convStore, logger),
		MetricsHandler:     promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
	})
}

func TestRouterRoutes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/api/conversations", "", http.StatusOK},
		{http.MethodGet, "/api/settings", "", http.StatusOK},
		{http.MethodPost, "/api/settings", `{"chatTitle":"x"}`, http.StatusOK},
		{http.MethodPost, "/api/settings/reset", "", http.StatusOK},
		{http.MethodPost, "/api/chat/send", `{}`, http.StatusBadRequest},
		{http.MethodPost, "/api/lead/submit", `{"name":"Dana"}`, http.StatusOK},
		{http.MethodPost, "/api/widget/session", "", http.StatusOK},
		{http.MethodPost, "/api/widget/reply", `{"sessionId":"missing","message":"hi"}`, http.StatusNotFound},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouterCORSHeaders(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://widget.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://widget.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterRateLimitsRelayEndpoints(t *testing.T) {
	logger := logging.New("error")
	store := settings.NewStore(settings.StoreConfig{Logger: logger})
	convStore := conversation.NewMemoryStore()
	engine := flow.NewEngine(flow.EngineConfig{
		Settings: store,
		Chat:     stubGateway{},
		Summary:  stubGateway{},
		Store:    convStore,
		Logger:   logger,
	})
	r := New(&Config{
		Logger:        logger,
		Settings:      handlers.NewSettingsHandler(store, logger),
		Chat:          handlers.NewChatHandler(store, stubRelay{}, convStore, logger),
		Lead:          handlers.NewLeadHandler(stubGateway{}, store, convStore, logger),
		Widget:        handlers.NewWidgetHandler(engine, flow.NewRegistry(), logger),
		Health:        handlers.NewHealthHandler(store, convStore, logger),
		ChatRateLimit: 0.0001,
		ChatRateBurst: 1,
	})

	first := httptest.NewRequest(http.MethodPost, "/api/widget/session", strings.NewReader(""))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/widget/session", strings.NewReader(""))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Settings stay outside the throttled group.
	settingsReq := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, settingsReq)
	require.Equal(t, http.StatusOK, rec.Code)
}
