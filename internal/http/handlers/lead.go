package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/internal/gateway"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// LeadSubmitter delivers a lead payload to the configured webhook.
type LeadSubmitter interface {
	SubmitLead(ctx context.Context, lead any, webhookURL string) gateway.Outcome
}

// LeadHandler accepts arbitrary lead objects, enriches them with the
// conversation transcript, and forwards them to the lead webhook.
type LeadHandler struct {
	gateway  LeadSubmitter
	settings SettingsSource
	store    conversation.Store
	logger   *logging.Logger
}

func NewLeadHandler(gw LeadSubmitter, settings SettingsSource, store conversation.Store, logger *logging.Logger) *LeadHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadHandler{
		gateway:  gw,
		settings: settings,
		store:    store,
		logger:   logger.Component("lead_handler"),
	}
}

// Submit always answers 200 for well-formed payloads; delivery failure
// is reported in webhook_status, never as an HTTP error.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var lead map[string]any
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil || lead == nil {
		writeError(w, http.StatusBadRequest, "Invalid lead payload")
		return
	}

	ctx := r.Context()
	conversationID, _ := lead["conversationId"].(string)
	if conversationID != "" {
		if rec, err := h.store.Record(ctx, conversationID); err == nil && rec != nil {
			lead["conversation"] = rec
		}
	}
	lead["submitted_at"] = time.Now().UTC().Format(time.RFC3339)

	st := h.settings.Current()
	outcome := h.gateway.SubmitLead(ctx, lead, st.WebhookURL)

	if outcome.Delivered() && conversationID != "" {
		if err := h.store.Delete(ctx, conversationID); err != nil {
			h.logger.Warn("conversation cleanup failed", "conversation_id", conversationID, "error", err)
		}
	}
	if outcome.Status == "failed" {
		h.logger.Error("lead webhook delivery failed", "conversation_id", conversationID, "error", outcome.Error)
	}

	message := "Lead submitted successfully"
	switch outcome.Status {
	case "failed":
		message = "Lead received but webhook failed"
	case "no_webhook":
		message = "Lead received (no webhook configured)"
	}

	resp := map[string]any{
		"message":        message,
		"webhook_status": outcome.Status,
	}
	if outcome.Error != "" {
		resp["webhook_error"] = outcome.Error
	}
	writeJSON(w, http.StatusOK, resp)
}
