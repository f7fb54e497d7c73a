package domain

// Intent is the routing decision for an incoming question.
type Intent string

const (
	// IntentChat routes to the conversational branch.
	IntentChat Intent = "chat"
	// IntentData routes to the query-resolution engine.
	IntentData Intent = "data"
)

// Answer is the result of one Ask call: the rendered text, an optional chart
// reference, and the session the turn was recorded under.
type Answer struct {
	Text      string `json:"text"`
	Chart     string `json:"chart,omitempty"`
	SessionID string `json:"session_id"`
}

// State describes engine readiness.
type State string

const (
	// StateInitializing means startup (schema discovery, vocabulary learning)
	// has not finished yet.
	StateInitializing State = "initializing"
	// StateReady means the engine is serving questions.
	StateReady State = "ready"
	// StateError means startup failed; the detail stays until an operator
	// intervenes.
	StateError State = "error"
)

// Status is the readiness probe payload exposed to callers.
type Status struct {
	State  State  `json:"status"`
	Detail string `json:"message,omitempty"`
}
