package flow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadchat/leadchat-platform/internal/leads"
)

// State is the conversation flow state.
type State string

const (
	// StateCollecting walks the participant through the configured
	// structured questions in order.
	StateCollecting State = "collecting"
	// StateOpenQuestion relays free-form replies to the chat webhook.
	StateOpenQuestion State = "open-question"
	// StateCompleted is terminal; further input is rejected.
	StateCompleted State = "completed"
)

// Session is one participant's pass through the flow. A session owns
// its LeadData exclusively.
type Session struct {
	ID            string
	State         State
	QuestionIndex int

	// Phase is the opaque correlation token returned by the chat
	// webhook and echoed back on the next turn. ThreadID likewise.
	Phase    string
	ThreadID string

	Lead      leads.LeadData
	CreatedAt time.Time
}

// newSessionID builds a client-style conversation identifier.
func newSessionID() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "conv_" + uuid.NewString()
	}
	return fmt.Sprintf("conv_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(b))
}

// Registry holds active flow sessions in memory. Abandoned sessions
// stay until process restart; that mirrors the conversation store's
// accepted unbounded-growth model.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
