package engine

import (
	"strings"

	"factorygpt/internal/domain"
)

// generalPhrases and greetingWords are the triggers that route a question to
// the conversational branch. Anything not matched is treated as data-seeking:
// a misrouted data question fails gracefully, while a misrouted greeting
// would block a real answer.
var generalPhrases = []string{
	"how are you", "what's up", "how do you feel", "tell me about yourself",
	"what can you do", "who are you", "introduce yourself", "are you gpt",
	"good morning", "good afternoon", "good evening",
}

// greetingWords match on whole words only. A raw substring scan would route
// "machine" or "highest" to chat via the "hi" inside them.
var greetingWords = []string{"hello", "hi", "hey"}

// classifyIntent routes a question to chat or data handling. Deterministic
// and case-insensitive; ties resolve to data.
func classifyIntent(question string) domain.Intent {
	lower := strings.ToLower(question)
	for _, phrase := range generalPhrases {
		if strings.Contains(lower, phrase) {
			return domain.IntentChat
		}
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, word := range words {
		for _, greeting := range greetingWords {
			if word == greeting {
				return domain.IntentChat
			}
		}
	}
	return domain.IntentData
}
