package engine

import (
	"strings"
	"sync"

	"factorygpt/internal/domain"
)

// conversation holds one session's bounded turn log and follow-up context.
// Turns are append-only; eviction drops the oldest turn once the window is
// full. Callers serialize questions per session; the registry lock only
// protects session lookup and the turn slice.
type conversation struct {
	mu       sync.Mutex
	turns    []domain.Turn
	capacity int
	context  domain.SessionContext
}

func (c *conversation) append(turns ...domain.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
	if over := len(c.turns) - c.capacity; over > 0 {
		c.turns = append([]domain.Turn(nil), c.turns[over:]...)
	}
}

// recent returns up to n most recent turns, oldest first.
func (c *conversation) recent(n int) []domain.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n >= len(c.turns) {
		return append([]domain.Turn(nil), c.turns...)
	}
	return append([]domain.Turn(nil), c.turns[len(c.turns)-n:]...)
}

func (c *conversation) sessionContext() domain.SessionContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.context
}

func (c *conversation) updateContext(ctx domain.SessionContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = ctx
}

// sessionRegistry maps session IDs to their conversations.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*conversation
	capacity int
}

func newSessionRegistry(capacity int) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*conversation),
		capacity: capacity,
	}
}

// get returns the conversation for a session, creating it on first use.
func (r *sessionRegistry) get(sessionID string) *conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.sessions[sessionID]
	if !ok {
		conv = &conversation{capacity: r.capacity}
		r.sessions[sessionID] = conv
	}
	return conv
}

// followUpMarkers flag questions that refer back to an earlier answer.
var followUpMarkers = []string{
	"same machine", "that machine", "same line", "that one", "what about", " it ",
}

// resolveFollowUp rewrites a follow-up question so the planner sees the
// entity established by the previous data answer. A question that names a
// known entity of its own is left untouched.
func resolveFollowUp(question string, sessCtx domain.SessionContext, vocab Vocabulary) string {
	if !sessCtx.HasEntity() {
		return question
	}
	if vocab.ContainsKnownToken(question) {
		return question
	}

	lower := " " + strings.ToLower(question) + " "
	for _, marker := range followUpMarkers {
		if strings.Contains(lower, marker) {
			return question + " (referring to " + sessCtx.LastEntity + ")"
		}
	}
	return question
}
