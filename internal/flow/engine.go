package flow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/internal/gateway"
	"github.com/leadchat/leadchat-platform/internal/leads"
	"github.com/leadchat/leadchat-platform/internal/observability/metrics"
	"github.com/leadchat/leadchat-platform/internal/settings"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// Fixed flow messages, matching the widget's language.
const (
	msgTransition = "מעולה! מה היית רוצה לדעת או לשאול בהתחלה? 💬"
	msgThankYou   = "תודה שפנית אלינו! נחזור אליך בהקדם."
	msgEmptyReply = "מצטער, נראה שיש בעיה, אנא נסה שוב בעוד מספר דקות"
)

var (
	ErrSessionCompleted = errors.New("flow: session already completed")
	ErrEmptyReply       = errors.New("flow: reply text required")
)

// SettingsSource provides the current complete settings record.
type SettingsSource interface {
	Current() settings.Settings
}

// ChatSender relays an open-question turn to the chat webhook.
type ChatSender interface {
	SendChatMessage(ctx context.Context, payload gateway.ChatPayload, webhookURL string) (*gateway.ChatReply, error)
}

// SummarySubmitter delivers the accumulated lead at flow completion.
type SummarySubmitter interface {
	SubmitSummary(ctx context.Context, lead any, webhookURL string) gateway.Outcome
}

// BotMessage is one rendered widget message.
type BotMessage struct {
	Type               string        `json:"type"`
	Text               string        `json:"text,omitempty"`
	Buttons            []string      `json:"buttons,omitempty"`
	ImageURL           string        `json:"imageUrl,omitempty"`
	Card               *gateway.Card `json:"card,omitempty"`
	MultiSelectOptions []string      `json:"multiSelectOptions,omitempty"`
}

// TurnResult is the engine's output for one participant reply.
type TurnResult struct {
	State State `json:"state"`
	// AdminBypass signals the caller to open the admin configuration
	// surface instead of continuing the flow.
	AdminBypass bool         `json:"adminBypass,omitempty"`
	Messages    []BotMessage `json:"messages"`
}

// EndResult reports flow completion. The message is always the fixed
// thank-you, regardless of delivery outcome.
type EndResult struct {
	State   State           `json:"state"`
	Message BotMessage      `json:"message"`
	Outcome gateway.Outcome `json:"-"`
}

// Engine drives a session through structured lead collection, then
// free-form Q&A relayed through the webhook gateway, and finally into
// the terminal completed state.
type Engine struct {
	settings SettingsSource
	chat     ChatSender
	summary  SummarySubmitter
	store    conversation.Store
	logger   *logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// EngineConfig wires an Engine's collaborators.
type EngineConfig struct {
	Settings SettingsSource
	Chat     ChatSender
	Summary  SummarySubmitter
	Store    conversation.Store
	Logger   *logging.Logger
	Metrics  *metrics.Metrics
}

func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		settings: cfg.Settings,
		chat:     cfg.Chat,
		summary:  cfg.Summary,
		store:    cfg.Store,
		logger:   logger.Component("flow"),
		metrics:  cfg.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a fresh session and renders the first prompt. With no
// questions configured the session goes straight to open-question.
func (e *Engine) Start(ctx context.Context) (*Session, []BotMessage) {
	s := &Session{
		ID:        newSessionID(),
		State:     StateCollecting,
		Phase:     "initial",
		CreatedAt: e.now(),
	}
	e.metrics.ObserveFlowSession()
	e.logger.Info("flow session started", "session_id", s.ID)

	st := e.settings.Current()
	return s, e.nextPrompt(st, s)
}

// HandleReply advances the session by one participant reply.
func (e *Engine) HandleReply(ctx context.Context, s *Session, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReply
	}

	switch s.State {
	case StateCompleted:
		return nil, ErrSessionCompleted
	case StateCollecting:
		return e.handleStructured(s, text), nil
	default:
		return e.handleOpenQuestion(ctx, s, text), nil
	}
}

func (e *Engine) handleStructured(s *Session, text string) *TurnResult {
	st := e.settings.Current()

	if e.isAdminBypass(st, s, text) {
		e.logger.Info("admin bypass triggered", "session_id", s.ID)
		return &TurnResult{State: s.State, AdminBypass: true}
	}

	key := ""
	if s.QuestionIndex < len(st.Questions) {
		key = st.Questions[s.QuestionIndex].Key
	}
	s.Lead.AddAnswer(key, text)
	s.QuestionIndex++

	msgs := e.nextPrompt(st, s)
	return &TurnResult{State: s.State, Messages: msgs}
}

// isAdminBypass checks the bypass rule: exactly after the first answer
// was collected, the current reply must equal the configured admin
// phone and the first answer the configured admin name. Both admin
// values empty means the bypass is disabled.
func (e *Engine) isAdminBypass(st settings.Settings, s *Session, text string) bool {
	if st.AdminName == "" || st.AdminPhone == "" {
		return false
	}
	return s.QuestionIndex == 1 &&
		text == st.AdminPhone &&
		len(s.Lead.InitialAnswers) > 0 &&
		s.Lead.InitialAnswers[0].Value == st.AdminName
}

// nextPrompt renders the question at the current index, or switches to
// open-question with the fixed transition message once exhausted.
func (e *Engine) nextPrompt(st settings.Settings, s *Session) []BotMessage {
	if s.QuestionIndex < len(st.Questions) {
		return []BotMessage{renderQuestion(st.Questions[s.QuestionIndex], s.Lead.InitialAnswers)}
	}
	s.State = StateOpenQuestion
	return []BotMessage{{Type: "text", Text: msgTransition}}
}

func renderQuestion(q settings.Question, answers []leads.Answer) BotMessage {
	label := ResolveLabel(q.Label, answers)
	msg := BotMessage{Type: q.Type, Text: label}
	switch q.Type {
	case "buttons":
		msg.Buttons = q.Buttons
	case "card":
		msg.Card = &gateway.Card{
			Title:       label,
			Description: q.Description,
			ImageURL:    q.ImageURL,
		}
	case "":
		msg.Type = "text"
	}
	return msg
}

func (e *Engine) handleOpenQuestion(ctx context.Context, s *Session, text string) *TurnResult {
	st := e.settings.Current()

	if e.store != nil {
		if err := e.store.Append(ctx, s.ID, conversation.Message{
			Role:      conversation.RoleUser,
			Content:   text,
			Timestamp: e.now(),
		}); err != nil {
			e.logger.Warn("conversation append failed", "session_id", s.ID, "error", err)
		}
	}

	payload := gateway.ChatPayload{
		Message:        gateway.ChatMessage{Message: text, Phase: s.Phase},
		ConversationID: s.ID,
		ThreadID:       s.ThreadID,
		Timestamp:      e.now(),
	}
	reply, err := e.chat.SendChatMessage(ctx, payload, st.ChatWebhookURL)
	if err != nil {
		// State is unchanged: the participant can retry.
		e.logger.Warn("chat webhook turn failed", "session_id", s.ID, "error", err)
		return &TurnResult{
			State:    s.State,
			Messages: []BotMessage{{Type: "text", Text: gateway.UserMessage(err)}},
		}
	}

	if reply.ThreadID != "" {
		s.ThreadID = reply.ThreadID
	}
	s.Phase = reply.Phase

	answer := reply.Text
	if answer == "" && reply.Card != nil {
		answer = reply.Card.Title
	}
	if answer == "" {
		answer = msgEmptyReply
	}
	s.Lead.AddTurn(text, answer, e.now())

	if e.store != nil {
		if err := e.store.Append(ctx, s.ID, conversation.Message{
			Role:      conversation.RoleAssistant,
			Content:   answer,
			Timestamp: e.now(),
		}); err != nil {
			e.logger.Warn("conversation append failed", "session_id", s.ID, "error", err)
		}
	}

	msg := BotMessage{
		Type:               reply.Type,
		Text:               reply.Text,
		Buttons:            reply.Buttons,
		ImageURL:           reply.ImageURL,
		Card:               reply.Card,
		MultiSelectOptions: reply.MultiSelectOptions,
	}
	if msg.Type == "" {
		msg.Type = "text"
	}
	if msg.Text == "" && msg.Card == nil && msg.ImageURL == "" {
		msg.Text = answer
	}
	return &TurnResult{State: s.State, Messages: []BotMessage{msg}}
}

// Reset abandons the session and starts a fresh one: new id, empty
// LeadData, state back to collecting. In-flight webhook calls from the
// old session are not cancelled; their results die with it.
func (e *Engine) Reset(ctx context.Context, s *Session) (*Session, []BotMessage) {
	s.Lead.Reset()
	e.logger.Info("flow session reset", "session_id", s.ID)
	return e.Start(ctx)
}

// End submits the accumulated lead and moves the session to the
// terminal state. The participant always sees the thank-you message;
// delivery failure is only visible in the outcome and logs.
func (e *Engine) End(ctx context.Context, s *Session) *EndResult {
	thankYou := BotMessage{Type: "text", Text: msgThankYou}

	if s.State == StateCompleted {
		return &EndResult{State: StateCompleted, Message: thankYou, Outcome: gateway.Outcome{Status: "no_webhook"}}
	}

	st := e.settings.Current()
	submission := leads.Submission{
		LeadData:       s.Lead.Snapshot(),
		ConversationID: s.ID,
		Timestamp:      e.now(),
		Settings:       st,
	}

	outcome := e.summary.SubmitSummary(ctx, submission, st.SummaryWebhookURL)
	e.metrics.ObserveLeadSubmission(outcome.Status)

	switch outcome.Status {
	case "success":
		if e.store != nil {
			if err := e.store.Delete(ctx, s.ID); err != nil {
				e.logger.Warn("conversation cleanup failed", "session_id", s.ID, "error", err)
			}
		}
	case "failed":
		e.logger.Error("lead summary delivery failed", "session_id", s.ID, "error", outcome.Error)
	}

	s.State = StateCompleted
	return &EndResult{State: StateCompleted, Message: thankYou, Outcome: outcome}
}
