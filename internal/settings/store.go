package settings

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/leadchat/leadchat-platform/internal/gateway"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// Remote reads and writes the settings document through the webhook
// gateway. Read failures degrade to an empty document; write failures
// degrade to a failed Outcome.
type Remote interface {
	ReadSettings(ctx context.Context, webhookURL string) (map[string]json.RawMessage, error)
	WriteSettings(ctx context.Context, settings any, webhookURL string) gateway.Outcome
}

// Store is the single writer for the settings record. Readers always
// see a complete record: every load and update merges over the
// compiled-in defaults, so missing fields are backfilled.
type Store struct {
	mu       sync.RWMutex
	current  Settings
	version  int64
	defaults Settings

	snapshotPath string
	remote       Remote
	logger       *logging.Logger
}

// StoreConfig configures a settings store.
type StoreConfig struct {
	// Defaults is the baked-in record, usually Defaults() with
	// environment seeds applied. Zero value falls back to Defaults().
	Defaults *Settings
	// SnapshotPath persists the current record across restarts.
	// Empty keeps settings in memory only.
	SnapshotPath string
	Remote       Remote
	Logger       *logging.Logger
}

// NewStore creates a settings store holding the default record.
func NewStore(cfg StoreConfig) *Store {
	defaults := Defaults()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		current:      defaults,
		defaults:     defaults,
		snapshotPath: cfg.SnapshotPath,
		remote:       cfg.Remote,
		logger:       logger.Component("settings"),
	}
}

// Current returns the complete settings record. Slices are copied so
// callers cannot mutate the store through the returned value.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// Version returns the snapshot version, incremented on every mutation.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Load refreshes settings from the settings webhook if one is
// configured, merging remote fields over defaults. On failure (or no
// webhook) it falls back to the last local snapshot, else defaults.
// The result is persisted locally.
func (s *Store) Load(ctx context.Context) Settings {
	loaded := s.defaults

	var doc map[string]json.RawMessage
	if s.remote != nil {
		doc, _ = s.remote.ReadSettings(ctx, s.currentWebhookURL())
	}

	if len(doc) > 0 {
		merged, err := Merge(s.defaults, Partial(doc))
		if err != nil {
			s.logger.Warn("remote settings document rejected", "error", err)
		} else {
			loaded = merged
		}
	} else if snap, ok := s.readSnapshot(); ok {
		merged, err := Merge(s.defaults, snap)
		if err != nil {
			s.logger.Warn("local settings snapshot rejected", "error", err)
		} else {
			loaded = merged
		}
	}

	s.mu.Lock()
	s.current = loaded
	s.version++
	s.mu.Unlock()

	s.writeSnapshot(loaded)
	return clone(loaded)
}

// Update merges a partial document into the current record, persists
// it, and pushes the merged record to the settings webhook. The push
// is best-effort: its outcome is returned for the caller to log or
// ignore, but never fails the update.
func (s *Store) Update(ctx context.Context, partial Partial) (Settings, gateway.Outcome, error) {
	s.mu.Lock()
	merged, err := Merge(s.current, partial)
	if err != nil {
		s.mu.Unlock()
		return Settings{}, gateway.Outcome{}, err
	}
	s.current = merged
	s.version++
	s.mu.Unlock()

	s.writeSnapshot(merged)

	outcome := gateway.Outcome{Status: "no_webhook"}
	if s.remote != nil {
		outcome = s.remote.WriteSettings(ctx, merged, merged.SettingsWebhookURL)
		if outcome.Status == "failed" {
			s.logger.Warn("settings webhook push failed", "error", outcome.Error)
		}
	}
	return clone(merged), outcome, nil
}

// Reset replaces the current record with the baked-in defaults.
func (s *Store) Reset(ctx context.Context) Settings {
	s.mu.Lock()
	s.current = s.defaults
	s.version++
	s.mu.Unlock()

	s.writeSnapshot(s.defaults)
	return clone(s.defaults)
}

func (s *Store) currentWebhookURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.SettingsWebhookURL
}

func (s *Store) readSnapshot() (Partial, bool) {
	if s.snapshotPath == "" {
		return nil, false
	}
	raw, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return nil, false
	}
	var doc Partial
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("settings snapshot unreadable", "path", s.snapshotPath, "error", err)
		return nil, false
	}
	return doc, true
}

func (s *Store) writeSnapshot(v Settings) {
	if s.snapshotPath == "" {
		return
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.snapshotPath, raw, 0o644); err != nil {
		s.logger.Warn("settings snapshot write failed", "path", s.snapshotPath, "error", err)
	}
}

func clone(v Settings) Settings {
	out := v
	if v.Products != nil {
		out.Products = append([]string(nil), v.Products...)
	}
	if v.Questions != nil {
		out.Questions = make([]Question, len(v.Questions))
		for i, q := range v.Questions {
			out.Questions[i] = q
			if q.Buttons != nil {
				out.Questions[i].Buttons = append([]string(nil), q.Buttons...)
			}
		}
	}
	return out
}
