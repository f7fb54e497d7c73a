package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"factorygpt/internal/domain"
)

// planningPromptTurns is how many recent turns the planner sees.
const planningPromptTurns = 10

// maxVocabularyTokens caps the vocabulary listing in the planning prompt so a
// large factory does not blow past the model's context.
const maxVocabularyTokens = 1000

type candidateList struct {
	Candidates []domain.Candidate `json:"candidates"`
}

// buildPlanningPrompt asks the model for the top (table, column) pairs likely
// to answer the question, given the schema, recent history, and the known
// machine vocabulary.
func buildPlanningPrompt(question, schema string, history []domain.Turn, vocab Vocabulary, maxCandidates int) string {
	tokens := vocab.Tokens()
	if len(tokens) > maxVocabularyTokens {
		tokens = tokens[:maxVocabularyTokens]
	}

	var b strings.Builder
	b.WriteString("You are an expert data analyst. Analyze the user's question and find the best way to answer it.\n\n")
	b.WriteString("DATABASE SCHEMA:\n")
	b.WriteString(schema)
	b.WriteString("\n\nCONVERSATION HISTORY:\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nKNOWN MACHINE KEYWORDS:\n")
	b.WriteString(strings.Join(tokens, ", "))
	b.WriteString(fmt.Sprintf("\n\nUser Question: %q\n\n", question))
	b.WriteString(fmt.Sprintf(
		"Identify the TOP %d most likely (table, column) pairs that could answer this question.\n", maxCandidates))
	b.WriteString("The \"column\" should be the primary metric (e.g. CYCLE_TIME, TOTAL_PRODUCTION_COUNT).\n")
	b.WriteString("Return ONLY a valid JSON object with key \"candidates\" containing a list of objects with \"table\" and \"column\" keys.\n")
	return b.String()
}

func renderHistory(history []domain.Turn) string {
	if len(history) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return strings.Join(lines, "\n")
}

// parseCandidates extracts the ranked candidate list from the model output.
// The model's ranking is taken as given; it is not re-scored downstream.
// Unparsable output is a planning failure, fatal for the request.
func parseCandidates(raw string, maxCandidates int) ([]domain.Candidate, error) {
	cleaned := stripCodeFences(raw)

	var list candidateList
	if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
		return nil, fmt.Errorf("decode candidate list: %w", err)
	}
	if len(list.Candidates) == 0 {
		return nil, fmt.Errorf("candidate list is empty")
	}

	candidates := make([]domain.Candidate, 0, maxCandidates)
	for _, c := range list.Candidates {
		if !c.Valid() {
			continue
		}
		candidates = append(candidates, c)
		if len(candidates) == maxCandidates {
			break
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no well-formed candidates in list")
	}
	return candidates, nil
}

// stripCodeFences removes markdown fencing and a leading json language tag
// that chat models habitually wrap structured output in.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```sql", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// plan runs the planning prompt and parses the response.
func (e *Engine) plan(ctx context.Context, question string, history []domain.Turn) ([]domain.Candidate, error) {
	prompt := buildPlanningPrompt(question, e.schema, history, e.vocab, e.maxCandidates)

	raw, err := e.llm.Chat(ctx, []domain.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("planning model call: %w", err)
	}

	candidates, err := parseCandidates(raw, e.maxCandidates)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
