package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a gateway failure. Every kind maps to exactly one
// localized user-facing message.
type Kind string

const (
	KindNotConfigured Kind = "not_configured"
	KindUnreachable   Kind = "unreachable"
	KindUnauthorized  Kind = "unauthorized"
	KindRateLimited   Kind = "rate_limited"
	KindTimeout       Kind = "timeout"
	KindUpstream      Kind = "upstream"
)

// Localized user-facing messages, matching the widget's language.
const (
	msgChatNotConfigured = "לא הוגדר webhook עבור הצ'אט"
	msgUnreachable       = "לא ניתן להתחבר לשרת, אנא ודא שה-webhook פועל"
	msgUnauthorized      = "שגיאת הרשאה"
	msgRateLimited       = "חרגת ממגבלת הקריאות, אנא נסה שוב מאוחר יותר"
	msgGeneric           = "נראה שיש בעיה, אנא נסה שוב בעוד מספר דקות"
)

// Error is a classified gateway failure carrying a localized message
// safe to render directly in the chat widget.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gateway: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage extracts the localized message from a gateway error, or
// returns the generic message for anything else.
func UserMessage(err error) string {
	var ge *Error
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return msgGeneric
}

// IsNotConfigured reports whether err means the webhook URL was left
// at its sentinel default. That is "feature disabled", not a failure.
func IsNotConfigured(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindNotConfigured
}

// classifyStatus maps a non-2xx upstream status to a gateway error.
func classifyStatus(status int) *Error {
	switch status {
	case 401:
		return &Error{Kind: KindUnauthorized, Message: msgUnauthorized, Status: status}
	case 429:
		return &Error{Kind: KindRateLimited, Message: msgRateLimited, Status: status}
	default:
		return &Error{Kind: KindUpstream, Message: msgGeneric, Status: status}
	}
}

// classifyTransport maps a transport-level failure (connection refused,
// DNS, deadline) to a gateway error.
func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: msgGeneric, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: msgGeneric, Err: err}
	}
	return &Error{Kind: KindUnreachable, Message: msgUnreachable, Err: err}
}
