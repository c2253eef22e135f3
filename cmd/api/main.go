package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/leadchat/leadchat-platform/internal/api/router"
	"github.com/leadchat/leadchat-platform/internal/completion"
	appconfig "github.com/leadchat/leadchat-platform/internal/config"
	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/internal/flow"
	"github.com/leadchat/leadchat-platform/internal/gateway"
	"github.com/leadchat/leadchat-platform/internal/http/handlers"
	"github.com/leadchat/leadchat-platform/internal/observability/metrics"
	"github.com/leadchat/leadchat-platform/internal/settings"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadchat-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	convStore := newConversationStore(cfg, logger)
	gw := gateway.New(gateway.Config{Logger: logger, Metrics: m})

	settingsStore := settings.NewStore(settings.StoreConfig{
		Defaults:     seededDefaults(cfg),
		SnapshotPath: cfg.SettingsSnapshotPath,
		Remote:       gw,
		Logger:       logger,
	})
	// Best-effort remote refresh; defaults or the local snapshot carry
	// the process until the webhook answers.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 15*time.Second)
	settingsStore.Load(loadCtx)
	cancelLoad()

	relay := completion.NewRelay(logger, m)
	engine := flow.NewEngine(flow.EngineConfig{
		Settings: settingsStore,
		Chat:     gw,
		Summary:  gw,
		Store:    convStore,
		Logger:   logger,
		Metrics:  m,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		Settings:           handlers.NewSettingsHandler(settingsStore, logger),
		Chat:               handlers.NewChatHandler(settingsStore, relay, convStore, logger),
		Lead:               handlers.NewLeadHandler(gw, settingsStore, convStore, logger),
		Widget:             handlers.NewWidgetHandler(engine, flow.NewRegistry(), logger),
		Health:             handlers.NewHealthHandler(settingsStore, convStore, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRateLimit:      cfg.ChatRateLimit,
		ChatRateBurst:      cfg.ChatRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// seededDefaults overlays environment seeds onto the compiled-in
// settings record. The admin panel can overwrite all of them later.
func seededDefaults(cfg *appconfig.Config) *settings.Settings {
	defaults := settings.Defaults()
	if cfg.OpenAIAPIKey != "" {
		defaults.OpenAIAPIKey = cfg.OpenAIAPIKey
	}
	if cfg.LeadWebhookURL != "" {
		defaults.WebhookURL = cfg.LeadWebhookURL
	}
	if cfg.ChatWebhookURL != "" {
		defaults.ChatWebhookURL = cfg.ChatWebhookURL
	}
	if cfg.SettingsWebhookURL != "" {
		defaults.SettingsWebhookURL = cfg.SettingsWebhookURL
	}
	if cfg.SummaryWebhookURL != "" {
		defaults.SummaryWebhookURL = cfg.SummaryWebhookURL
	}
	return &defaults
}

// newConversationStore picks redis when an address is configured, else
// the in-process store.
func newConversationStore(cfg *appconfig.Config, logger *logging.Logger) conversation.Store {
	if cfg.RedisAddr == "" {
		logger.Info("conversation store: in-memory")
		return conversation.NewMemoryStore()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, falling back to in-memory conversation store",
			"addr", cfg.RedisAddr, "error", err)
		return conversation.NewMemoryStore()
	}

	logger.Info("conversation store: redis", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	return conversation.NewRedisStore(client, cfg.SessionTTL)
}
