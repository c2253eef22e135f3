package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/leadchat/leadchat-platform/internal/completion"
	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// defaultConversationID groups messages from clients that never supply
// their own identifier.
const defaultConversationID = "default"

// ChatRelay answers one user message given the full prior history.
type ChatRelay interface {
	Reply(ctx context.Context, apiKey, botName string, history []conversation.Message) (string, error)
}

// ChatHandler serves the direct OpenAI relay endpoint.
type ChatHandler struct {
	settings SettingsSource
	relay    ChatRelay
	store    conversation.Store
	logger   *logging.Logger
}

func NewChatHandler(settings SettingsSource, relay ChatRelay, store conversation.Store, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{
		settings: settings,
		relay:    relay,
		store:    store,
		logger:   logger.Component("chat_handler"),
	}
}

type chatSendRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

// Send appends the user message to the conversation, relays the full
// history to OpenAI, and appends and returns the assistant's answer.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	st := h.settings.Current()
	if strings.TrimSpace(st.OpenAIAPIKey) == "" {
		writeError(w, http.StatusBadRequest, "OpenAI API key not configured")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = defaultConversationID
	}

	ctx := r.Context()
	if err := h.store.Append(ctx, conversationID, conversation.Message{
		Role:      conversation.RoleUser,
		Content:   req.Message,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.Warn("conversation append failed", "conversation_id", conversationID, "error", err)
	}

	history := []conversation.Message{{Role: conversation.RoleUser, Content: req.Message}}
	if rec, err := h.store.Record(ctx, conversationID); err == nil && rec != nil {
		history = rec.Messages
	}

	answer, err := h.relay.Reply(ctx, st.OpenAIAPIKey, st.BotName, history)
	if err != nil {
		h.writeRelayError(w, conversationID, err)
		return
	}

	if err := h.store.Append(ctx, conversationID, conversation.Message{
		Role:      conversation.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.Warn("conversation append failed", "conversation_id", conversationID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response":       answer,
		"conversationId": conversationID,
	})
}

// writeRelayError maps relay failures: 401/429 are forwarded with
// their localized message, everything else is a 500.
func (h *ChatHandler) writeRelayError(w http.ResponseWriter, conversationID string, err error) {
	if errors.Is(err, completion.ErrAPIKeyMissing) {
		writeError(w, http.StatusBadRequest, "OpenAI API key not configured")
		return
	}

	var ce *completion.Error
	if errors.As(err, &ce) && (ce.Status == http.StatusUnauthorized || ce.Status == http.StatusTooManyRequests) {
		writeError(w, ce.Status, ce.Message)
		return
	}

	h.logger.Error("chat relay failed", "conversation_id", conversationID, "error", err)
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("שגיאה בשליחה ל-OpenAI: %v", err))
}
