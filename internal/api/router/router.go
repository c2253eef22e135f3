package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leadchat/leadchat-platform/internal/http/handlers"
	httpmiddleware "github.com/leadchat/leadchat-platform/internal/http/middleware"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	Settings *handlers.SettingsHandler
	Chat     *handlers.ChatHandler
	Lead     *handlers.LeadHandler
	Widget   *handlers.WidgetHandler
	Health   *handlers.HealthHandler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ChatRateLimit throttles the relay endpoints per client IP,
	// requests per second. Zero disables throttling.
	ChatRateLimit float64
	ChatRateBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", cfg.Health.Health)
		api.Get("/conversations", cfg.Health.Conversations)

		api.Route("/settings", func(r chi.Router) {
			r.Get("/", cfg.Settings.Get)
			r.Post("/", cfg.Settings.Update)
			r.Post("/reset", cfg.Settings.Reset)
		})

		api.Group(func(relay chi.Router) {
			if cfg.ChatRateLimit > 0 {
				relay.Use(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatRateBurst))
			}
			relay.Post("/chat/send", cfg.Chat.Send)
			relay.Route("/widget", func(r chi.Router) {
				r.Post("/session", cfg.Widget.Session)
				r.Post("/reply", cfg.Widget.Reply)
				r.Post("/reset", cfg.Widget.Reset)
				r.Post("/end", cfg.Widget.End)
			})
		})

		api.Post("/lead/submit", cfg.Lead.Submit)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
