package engine

import (
	"strings"

	"factorygpt/internal/domain"
)

// chatPromptTurns is how many recent turns the conversational branch sees.
const chatPromptTurns = 5

// buildChatPrompt frames a non-data question for the model with recent
// conversation context.
func buildChatPrompt(question string, history []domain.Turn) string {
	var b strings.Builder
	b.WriteString("You are Factory GPT, a helpful and friendly AI assistant for the factory floor.\n\n")
	b.WriteString("CONVERSATION HISTORY:\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nUSER'S CURRENT MESSAGE:\n")
	b.WriteString(question)
	b.WriteString("\n\nRespond naturally and conversationally. Be helpful, professional, and friendly.\n")
	b.WriteString("If asked what you can do, mention you can help with factory data queries, machine information, production metrics, downtime analysis, and more.\n")
	return b.String()
}
