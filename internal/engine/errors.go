package engine

import "fmt"

// ErrorCode classifies engine failures. Soft per-candidate failures
// (safety, execution, empty result) never escape the iteration loop; the
// codes here are the ones that can surface from Ask.
type ErrorCode string

const (
	// ErrorInvalidInput marks an empty or oversized question.
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorPlanning marks an absent or unparsable candidate list. Fatal for
	// the request; never retried.
	ErrorPlanning ErrorCode = "PLANNING_FAILURE"
	// ErrorExhaustion marks the case where every candidate failed.
	ErrorExhaustion ErrorCode = "EXHAUSTION"
	// ErrorUpstream marks a language-model transport failure.
	ErrorUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrorNotReady marks an Ask that arrived before initialization finished.
	ErrorNotReady ErrorCode = "NOT_READY"
)

// Error is the typed failure returned across the Ask boundary. UserMessage
// is safe to render; Err carries internal detail for logs only.
type Error struct {
	Code        ErrorCode
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("engine: %s", e.Code)
	}
	return fmt.Sprintf("engine: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, userMessage string, err error) *Error {
	return &Error{Code: code, UserMessage: userMessage, Err: err}
}

// User-facing failure texts. Deliberately generic: raw planner or database
// errors are logged, never rendered.
const (
	msgPlanningFailed = "My apologies, I was unable to form an initial plan. Please rephrase your question."
	msgExhausted      = "I couldn't find a definitive answer in the database. Please try rephrasing your question or check if the data exists."
	msgInitializing   = "Factory GPT is still initializing... Please wait a moment."
)
