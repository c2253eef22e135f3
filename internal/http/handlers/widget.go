package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leadchat/leadchat-platform/internal/flow"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// WidgetHandler drives the embedded widget's conversation flow over
// HTTP. Sessions live in an in-memory registry keyed by session id.
type WidgetHandler struct {
	engine   *flow.Engine
	registry *flow.Registry
	logger   *logging.Logger
}

func NewWidgetHandler(engine *flow.Engine, registry *flow.Registry, logger *logging.Logger) *WidgetHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WidgetHandler{
		engine:   engine,
		registry: registry,
		logger:   logger.Component("widget_handler"),
	}
}

type widgetSessionResponse struct {
	SessionID string            `json:"sessionId"`
	State     flow.State        `json:"state"`
	Messages  []flow.BotMessage `json:"messages"`
}

// Session opens a new flow session and returns the opening prompt.
func (h *WidgetHandler) Session(w http.ResponseWriter, r *http.Request) {
	s, msgs := h.engine.Start(r.Context())
	h.registry.Put(s)
	writeJSON(w, http.StatusOK, widgetSessionResponse{
		SessionID: s.ID,
		State:     s.State,
		Messages:  msgs,
	})
}

type widgetReplyRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type widgetReplyResponse struct {
	SessionID   string            `json:"sessionId"`
	State       flow.State        `json:"state"`
	AdminBypass bool              `json:"adminBypass,omitempty"`
	Messages    []flow.BotMessage `json:"messages"`
}

// Reply advances a session by one participant reply.
func (h *WidgetHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req widgetReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	s, ok := h.registry.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	res, err := h.engine.HandleReply(r.Context(), s, req.Message)
	switch {
	case errors.Is(err, flow.ErrEmptyReply):
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	case errors.Is(err, flow.ErrSessionCompleted):
		writeError(w, http.StatusConflict, "conversation already completed")
		return
	case err != nil:
		h.logger.Error("flow reply failed", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, widgetReplyResponse{
		SessionID:   s.ID,
		State:       res.State,
		AdminBypass: res.AdminBypass,
		Messages:    res.Messages,
	})
}

type widgetResetRequest struct {
	SessionID string `json:"sessionId"`
}

// Reset abandons a session and opens a replacement in one call.
func (h *WidgetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req widgetResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	old, ok := h.registry.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	fresh, msgs := h.engine.Reset(r.Context(), old)
	h.registry.Remove(old.ID)
	h.registry.Put(fresh)
	writeJSON(w, http.StatusOK, widgetSessionResponse{
		SessionID: fresh.ID,
		State:     fresh.State,
		Messages:  msgs,
	})
}

type widgetEndRequest struct {
	SessionID string `json:"sessionId"`
}

type widgetEndResponse struct {
	SessionID     string          `json:"sessionId"`
	State         flow.State      `json:"state"`
	Message       flow.BotMessage `json:"message"`
	WebhookStatus string          `json:"webhook_status"`
}

// End completes the session, submitting the accumulated lead. The
// session stays registered so repeated End calls are idempotent.
func (h *WidgetHandler) End(w http.ResponseWriter, r *http.Request) {
	var req widgetEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	s, ok := h.registry.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	res := h.engine.End(r.Context(), s)
	writeJSON(w, http.StatusOK, widgetEndResponse{
		SessionID:     s.ID,
		State:         res.State,
		Message:       res.Message,
		WebhookStatus: res.Outcome.Status,
	})
}
