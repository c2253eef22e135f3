package leads

import "time"

// Answer is one collected reply to a structured question.
type Answer struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Turn is one free-form question/answer exchange after structured
// collection has completed.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// LeadData aggregates everything collected during one conversation
// session. It is owned by exactly one session and submitted once when
// the conversation ends.
type LeadData struct {
	InitialAnswers []Answer `json:"initialAnswers"`
	Questions      []Turn   `json:"questions"`
}

// Submission is the payload delivered to the summary webhook.
type Submission struct {
	LeadData
	ConversationID string    `json:"conversationId"`
	Timestamp      time.Time `json:"timestamp"`
	Settings       any       `json:"settings"`
}
