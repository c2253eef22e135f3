package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/leadchat/leadchat-platform/internal/conversation"
	"github.com/leadchat/leadchat-platform/internal/observability/metrics"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// ErrAPIKeyMissing is returned before any upstream call is attempted.
var ErrAPIKeyMissing = errors.New("completion: OpenAI API key not configured")

// Localized user-facing messages for upstream failures.
const (
	msgInvalidKey  = "מפתח OpenAI לא תקין"
	msgRateLimited = "חרגת ממגבלת הקריאות ל-OpenAI"
)

const (
	defaultBotName  = "עוזר"
	systemPromptFmt = "אתה עוזר וירטואלי בשם %s. ענה בעברית בצורה ידידותית ומועילה."
	maxTokens       = 500
	temperature     = 0.7
)

// Error is a classified relay failure. Status carries the upstream
// HTTP status for 401/429 so handlers can forward it; 0 means generic.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("completion: upstream status %d: %v", e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// API is the slice of the OpenAI client the relay needs.
type API interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Relay forwards a conversation to the OpenAI chat-completion API with
// the full prior history as context, sender roles preserved in order.
type Relay struct {
	newClient func(apiKey string) API
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

func NewRelay(logger *logging.Logger, m *metrics.Metrics) *Relay {
	if logger == nil {
		logger = logging.Default()
	}
	return &Relay{
		// The API key lives in mutable settings, so a client is built
		// per call rather than held for the process lifetime.
		newClient: func(apiKey string) API { return openai.NewClient(apiKey) },
		logger:    logger.Component("completion"),
		metrics:   m,
	}
}

// Reply sends the history and returns the assistant's answer.
func (r *Relay) Reply(ctx context.Context, apiKey, botName string, history []conversation.Message) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrAPIKeyMissing
	}
	if strings.TrimSpace(botName) == "" {
		botName = defaultBotName
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPromptFmt, botName),
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	resp, err := r.newClient(apiKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT3Dot5Turbo,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		r.metrics.ObserveChatRelay("error")
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		r.metrics.ObserveChatRelay("error")
		return "", &Error{Err: errors.New("empty choices in completion response")}
	}

	r.metrics.ObserveChatRelay("success")
	return resp.Choices[0].Message.Content, nil
}

// classify maps upstream OpenAI errors: 401 means the configured key
// is invalid, 429 means rate limited, anything else is generic.
func classify(err error) *Error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case 401:
		return &Error{Status: 401, Message: msgInvalidKey, Err: err}
	case 429:
		return &Error{Status: 429, Message: msgRateLimited, Err: err}
	default:
		return &Error{Err: err}
	}
}
