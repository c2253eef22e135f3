package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadchat/leadchat-platform/internal/observability/metrics"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// Sentinel URLs mean "no webhook configured". They are never dialed;
// calls against them return synchronously.
const (
	SentinelLeadURL     = "https://api.example.com/webhook"
	SentinelChatURL     = "https://api.example.com/chat"
	SentinelSettingsURL = "https://api.example.com/settings"
	SentinelSummaryURL  = "https://api.example.com/summary"
)

// Per-operation timeouts, matching the widget's client-side budgets.
const (
	chatTimeout     = 60 * time.Second
	settingsTimeout = 10 * time.Second
	leadTimeout     = 30 * time.Second
)

// ChatMessage is the inner message of a chat webhook payload.
type ChatMessage struct {
	Message string `json:"message"`
	Phase   string `json:"phase"`
}

// ChatPayload is what the chat webhook receives for every open-question turn.
type ChatPayload struct {
	Message        ChatMessage `json:"message"`
	ConversationID string      `json:"conversationId"`
	ThreadID       string      `json:"threadId"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Card renders a rich card message in the widget.
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ButtonText  string `json:"buttonText,omitempty"`
	ButtonURL   string `json:"buttonUrl,omitempty"`
}

// ChatReply is the chat webhook's answer. Phase is an opaque
// correlation token echoed back on the next turn; ThreadID likewise.
type ChatReply struct {
	ThreadID           string   `json:"threadId,omitempty"`
	Phase              string   `json:"phase"`
	Type               string   `json:"type"`
	Text               string   `json:"text,omitempty"`
	Buttons            []string `json:"buttons,omitempty"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	Card               *Card    `json:"card,omitempty"`
	MultiSelectOptions []string `json:"multiSelectOptions,omitempty"`
}

// Outcome reports a best-effort webhook delivery. Status values mirror
// the public API's webhook_status field.
type Outcome struct {
	Status string // "success", "failed", "no_webhook"
	Error  string
}

func (o Outcome) Delivered() bool { return o.Status == "success" }

// Client forwards chat messages, settings documents and lead summaries
// to externally configured webhook URLs.
type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// Config controls how the gateway client behaves.
type Config struct {
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
}

// New creates a gateway client. Timeouts are applied per operation via
// context deadlines, so the underlying http.Client carries none.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.Component("gateway"),
		metrics:    cfg.Metrics,
	}
}

// notConfigured reports whether url means "feature disabled".
func notConfigured(url, sentinel string) bool {
	url = strings.TrimSpace(url)
	return url == "" || url == sentinel
}

// SendChatMessage POSTs one open-question turn to the chat webhook and
// decodes the rendered reply. 60 second budget.
func (c *Client) SendChatMessage(ctx context.Context, payload ChatPayload, webhookURL string) (*ChatReply, error) {
	if notConfigured(webhookURL, SentinelChatURL) {
		c.metrics.ObserveWebhookDelivery("chat", "no_webhook")
		return nil, &Error{Kind: KindNotConfigured, Message: msgChatNotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	body, err := c.postJSON(ctx, webhookURL, payload)
	if err != nil {
		c.metrics.ObserveWebhookDelivery("chat", "failed")
		c.logger.Warn("chat webhook delivery failed", "url", webhookURL, "error", err)
		return nil, err
	}
	c.metrics.ObserveWebhookDelivery("chat", "success")

	var reply ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &Error{Kind: KindUpstream, Message: msgGeneric, Err: fmt.Errorf("decode chat reply: %w", err)}
	}
	return &reply, nil
}

// ReadSettings fetches the remote settings document. Failures degrade
// to an empty document so the caller always has something to merge
// against defaults. 10 second budget.
func (c *Client) ReadSettings(ctx context.Context, webhookURL string) (map[string]json.RawMessage, error) {
	if notConfigured(webhookURL, SentinelSettingsURL) {
		return map[string]json.RawMessage{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, settingsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webhookURL, nil)
	if err != nil {
		return map[string]json.RawMessage{}, nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveWebhookDelivery("settings_read", "failed")
		c.logger.Warn("settings webhook read failed", "url", webhookURL, "error", err)
		return map[string]json.RawMessage{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveWebhookDelivery("settings_read", "failed")
		return map[string]json.RawMessage{}, nil
	}

	var doc map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil || doc == nil {
		c.metrics.ObserveWebhookDelivery("settings_read", "failed")
		return map[string]json.RawMessage{}, nil
	}
	c.metrics.ObserveWebhookDelivery("settings_read", "success")
	return doc, nil
}

// WriteSettings pushes the full settings document to the settings
// webhook. The document travels as a JSON string under a "settings"
// key. Failures degrade to a local-only confirmation. 10 second budget.
func (c *Client) WriteSettings(ctx context.Context, settings any, webhookURL string) Outcome {
	if notConfigured(webhookURL, SentinelSettingsURL) {
		return Outcome{Status: "no_webhook"}
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return Outcome{Status: "failed", Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, settingsTimeout)
	defer cancel()

	if _, err := c.postJSON(ctx, webhookURL, map[string]string{"settings": string(raw)}); err != nil {
		c.metrics.ObserveWebhookDelivery("settings_write", "failed")
		c.logger.Warn("settings webhook write failed", "url", webhookURL, "error", err)
		return Outcome{Status: "failed", Error: err.Error()}
	}
	c.metrics.ObserveWebhookDelivery("settings_write", "success")
	return Outcome{Status: "success"}
}

// SubmitLead delivers a lead payload. A "success" outcome tells the
// caller to clear the corresponding conversation record; "failed" is
// surfaced for operational logging only, never to the end user.
// 30 second budget.
func (c *Client) SubmitLead(ctx context.Context, lead any, webhookURL string) Outcome {
	return c.deliverLead(ctx, lead, webhookURL, SentinelLeadURL, "lead")
}

// SubmitSummary delivers the end-of-conversation lead summary to the
// summary webhook. Same semantics as SubmitLead.
func (c *Client) SubmitSummary(ctx context.Context, lead any, webhookURL string) Outcome {
	return c.deliverLead(ctx, lead, webhookURL, SentinelSummaryURL, "summary")
}

func (c *Client) deliverLead(ctx context.Context, lead any, webhookURL, sentinel, kind string) Outcome {
	if notConfigured(webhookURL, sentinel) {
		c.metrics.ObserveWebhookDelivery(kind, "no_webhook")
		return Outcome{Status: "no_webhook"}
	}

	ctx, cancel := context.WithTimeout(ctx, leadTimeout)
	defer cancel()

	if _, err := c.postJSON(ctx, webhookURL, lead); err != nil {
		c.metrics.ObserveWebhookDelivery(kind, "failed")
		c.logger.Error("lead webhook delivery failed", "kind", kind, "url", webhookURL, "error", err)
		var ge *Error
		msg := err.Error()
		if errors.As(err, &ge) && ge.Status > 0 {
			msg = fmt.Sprintf("Status code: %d", ge.Status)
		}
		return Outcome{Status: "failed", Error: msg}
	}
	c.metrics.ObserveWebhookDelivery(kind, "success")
	return Outcome{Status: "success"}
}

// postJSON POSTs v and returns the raw response body, classifying
// transport and status failures into gateway errors.
func (c *Client) postJSON(ctx context.Context, url string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: msgGeneric, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Message: msgGeneric, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode)
	}
	return data, nil
}
