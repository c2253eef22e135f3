package conversation

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a conversation's ordered message list.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is a server-side conversation, keyed by a client-generated
// identifier. Created lazily on first message, deleted after a
// successful lead submission.
type Record struct {
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}
