// Package engine implements the iterative query-resolution engine: the
// component that turns a natural-language question into a vetted, executed
// data retrieval and a deterministic human-readable answer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"factorygpt/internal/domain"
	"factorygpt/internal/store"
)

// ChatClient is the opaque language-model capability: given messages, it
// returns text.
type ChatClient interface {
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// ChartRenderer produces a chart artifact for a grouped metric and returns
// its web reference path. Optional: a nil renderer disables the chart branch.
type ChartRenderer interface {
	Render(metric, grouping string, points []ChartPoint) (string, error)
}

// ChartPoint is one bar of a grouped-metric chart.
type ChartPoint struct {
	Label string
	Value float64
}

// Options controls engine behavior.
type Options struct {
	MaxCandidates  int
	MemoryTurns    int
	MaxQuestionLen int
}

// Engine owns the live connections and the vocabulary index and exposes the
// Ask entry point. It is explicitly constructed and injected; there are no
// package-level singletons.
type Engine struct {
	llm            ChatClient
	db             store.FactoryDB
	charts         ChartRenderer
	maxCandidates  int
	maxQuestionLen int

	mu     sync.RWMutex
	state  domain.State
	detail string
	schema string
	layout map[string][]string // table -> column names, discovered at init
	vocab  Vocabulary

	sessions *sessionRegistry
}

// New constructs an engine. Init must run before questions are served.
func New(llmClient ChatClient, db store.FactoryDB, charts ChartRenderer, opts Options) (*Engine, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("engine: llm client must not be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("engine: factory db must not be nil")
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 3
	}
	if opts.MemoryTurns <= 0 {
		opts.MemoryTurns = 20
	}
	if opts.MaxQuestionLen <= 0 {
		opts.MaxQuestionLen = 500
	}
	return &Engine{
		llm:            llmClient,
		db:             db,
		charts:         charts,
		maxCandidates:  opts.MaxCandidates,
		maxQuestionLen: opts.MaxQuestionLen,
		state:          domain.StateInitializing,
		vocab:          make(Vocabulary),
		sessions:       newSessionRegistry(opts.MemoryTurns),
	}, nil
}

// Init performs startup work: connection check, schema discovery, and
// vocabulary learning. Schema discovery failure is fatal for readiness;
// vocabulary learning degrades to an empty index. Init is expected to run in
// a background goroutine so the host process can serve the status probe
// while it completes.
func (e *Engine) Init(ctx context.Context) {
	if err := e.db.Ping(ctx); err != nil {
		e.setError(fmt.Errorf("database unreachable: %w", err))
		return
	}

	schema, err := e.db.SchemaDescription(ctx)
	if err != nil {
		e.setError(fmt.Errorf("schema discovery: %w", err))
		return
	}
	if strings.TrimSpace(schema) == "" {
		e.setError(fmt.Errorf("schema discovery: no tables found"))
		return
	}

	layout := make(map[string][]string)
	tables, err := e.db.Tables(ctx)
	if err != nil {
		e.setError(fmt.Errorf("table discovery: %w", err))
		return
	}
	for _, table := range tables {
		cols, err := e.db.Columns(ctx, table)
		if err != nil {
			e.setError(fmt.Errorf("column discovery for %s: %w", table, err))
			return
		}
		names := make([]string, 0, len(cols))
		for _, c := range cols {
			names = append(names, c.Name)
		}
		layout[table] = names
	}

	vocab := learnVocabulary(ctx, e.db)

	e.mu.Lock()
	e.schema = schema
	e.layout = layout
	e.vocab = vocab
	e.state = domain.StateReady
	e.detail = ""
	e.mu.Unlock()

	slog.Info("Engine ready", "tables", len(layout), "vocabulary_tokens", len(vocab))
}

func (e *Engine) setError(err error) {
	e.mu.Lock()
	e.state = domain.StateError
	e.detail = err.Error()
	e.mu.Unlock()
	slog.Error("Engine initialization failed", "error", err)
}

// Status reports engine readiness. An error state persists until an operator
// intervenes; there is no automatic reconnect.
func (e *Engine) Status() domain.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.Status{State: e.state, Detail: e.detail}
}

// Ask answers one question within a session. It is safe to call repeatedly
// with the same session ID to continue a conversation; callers serialize
// questions per session. All internal failures are converted into typed
// errors whose UserMessage is safe to render.
func (e *Engine) Ask(ctx context.Context, sessionID, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, newError(ErrorInvalidInput, "Please enter a valid question.", nil)
	}
	if len(question) > e.maxQuestionLen {
		return domain.Answer{}, newError(ErrorInvalidInput, "That question is too long. Please shorten it.", nil)
	}

	e.mu.RLock()
	state := e.state
	e.mu.RUnlock()
	if state != domain.StateReady {
		return domain.Answer{}, newError(ErrorNotReady, msgInitializing, nil)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	conv := e.sessions.get(sessionID)

	slog.Info("Processing question", "session_id", sessionID, "intent", classifyIntent(question))

	if classifyIntent(question) == domain.IntentChat {
		return e.handleChat(ctx, sessionID, conv, question)
	}
	return e.handleData(ctx, sessionID, conv, question)
}

// handleChat serves the conversational branch: recent history plus a
// friendly assistant prompt, no data access.
func (e *Engine) handleChat(ctx context.Context, sessionID string, conv *conversation, question string) (domain.Answer, error) {
	prompt := buildChatPrompt(question, conv.recent(chatPromptTurns))

	reply, err := e.llm.Chat(ctx, []domain.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return domain.Answer{}, newError(ErrorUpstream,
			"I'm having trouble reaching the language model right now. Please try again.", err)
	}
	reply = strings.TrimSpace(reply)

	conv.append(
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: reply},
	)
	return domain.Answer{Text: reply, SessionID: sessionID}, nil
}

// handleData drives the data branch: follow-up resolution, planning, then
// the candidate iteration loop, and finally deterministic formatting.
func (e *Engine) handleData(ctx context.Context, sessionID string, conv *conversation, question string) (domain.Answer, error) {
	e.mu.RLock()
	vocab := e.vocab
	e.mu.RUnlock()

	resolved := resolveFollowUp(question, conv.sessionContext(), vocab)
	if resolved != question {
		slog.Info("Resolved follow-up reference", "session_id", sessionID, "resolved", resolved)
	}

	if e.charts != nil && isChartRequest(question) {
		return e.handleChart(ctx, sessionID, conv, question, resolved)
	}

	candidates, err := e.plan(ctx, resolved, conv.recent(planningPromptTurns))
	if err != nil {
		slog.Warn("Planning failed", "session_id", sessionID, "error", err)
		return domain.Answer{}, newError(ErrorPlanning, msgPlanningFailed, err)
	}
	slog.Info("Plan formed", "session_id", sessionID, "candidates", len(candidates))

	result, winningSQL, ok := e.iterate(ctx, sessionID, resolved, candidates)
	if !ok {
		return domain.Answer{}, newError(ErrorExhaustion, msgExhausted, nil)
	}

	text := formatResponse(question, result)

	conv.append(
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: text, SQLExecuted: winningSQL},
	)
	e.updateSessionContext(conv, question, result, "sql")

	return domain.Answer{Text: text, SessionID: sessionID}, nil
}

// iterate tries each candidate in rank order: synthesize, gate, execute.
// Gate rejection, execution error, and empty result are treated identically:
// abandon the candidate, log why, move on. The first candidate with a
// non-empty result wins and nothing from earlier candidates leaks into the
// answer.
func (e *Engine) iterate(ctx context.Context, sessionID, question string, candidates []domain.Candidate) (domain.QueryResult, string, bool) {
	for i, candidate := range candidates {
		attempt := slog.With("session_id", sessionID, "attempt", i+1,
			"table", candidate.Table, "column", candidate.Column)

		query, err := e.synthesize(ctx, question, candidate)
		if err != nil {
			attempt.Warn("Synthesis failed", "error", err)
			continue
		}

		if err := CheckQuery(query); err != nil {
			// The synthesized query is echoed to internal logs only.
			attempt.Warn("Safety violation, candidate blocked", "error", err, "sql", query)
			continue
		}

		result, err := e.db.Query(ctx, query)
		if err != nil {
			attempt.Warn("Execution failed", "error", err, "sql", query)
			continue
		}
		if result.Empty() {
			attempt.Info("No data found", "sql", query)
			continue
		}

		attempt.Info("Candidate succeeded", "rows", len(result.Rows), "sql", query)
		return result, query, true
	}
	return domain.QueryResult{}, "", false
}

// updateSessionContext records what this answer was about for follow-up
// resolution on the next turn.
func (e *Engine) updateSessionContext(conv *conversation, question string, result domain.QueryResult, contextType string) {
	sessCtx := conv.sessionContext()
	sessCtx.LastContextType = contextType

	if metric := metricKeyword(question); metric != "" {
		sessCtx.LastMetric = metric
	}
	if !result.Empty() {
		if entity, _ := entityFromRow(result.Rows[0]); entity != "" {
			sessCtx.LastEntity = entity
		}
	}
	if sessCtx.LastEntity == "" {
		e.mu.RLock()
		vocab := e.vocab
		e.mu.RUnlock()
		for _, token := range tokenize(question) {
			if names := vocab.Lookup(token); len(names) > 0 {
				sessCtx.LastEntity = names[0]
				break
			}
		}
	}

	conv.updateContext(sessCtx)
}

// metricKeyword extracts the metric subject of a question, when one of the
// known domains is mentioned.
func metricKeyword(question string) string {
	lower := strings.ToLower(question)
	switch {
	case strings.Contains(lower, "downtime"):
		return "downtime"
	case containsAny(lower, "production", "count"):
		return "production"
	case containsAny(lower, "cycletime", "cycle time"):
		return "cycle time"
	default:
		return ""
	}
}
