package engine

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"factorygpt/internal/store"
)

// identityColumns are the designated columns whose values name machines.
// Matching is case-insensitive against the discovered schema.
var identityColumns = []string{"MACHINE_NAME", "MACHINE_GROUP"}

var (
	splitNonAlnum  = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	splitCaseDigit = regexp.MustCompile(`[A-Z][a-z]*|[0-9]+|[a-z]+`)
)

// Vocabulary maps a normalized token to the set of canonical entity names it
// was observed in. Built once at startup; read-only afterwards.
type Vocabulary map[string]map[string]struct{}

// Lookup returns the canonical names for a token, case-insensitively.
func (v Vocabulary) Lookup(token string) []string {
	set, ok := v[strings.ToLower(token)]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tokens returns every known token in sorted order.
func (v Vocabulary) Tokens() []string {
	tokens := make([]string, 0, len(v))
	for token := range v {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// ContainsKnownToken reports whether any token of the given text is in the
// vocabulary. Used by the follow-up resolver to decide whether a question
// names an entity of its own.
func (v Vocabulary) ContainsKnownToken(text string) bool {
	for _, token := range tokenize(text) {
		if _, ok := v[token]; ok {
			return true
		}
	}
	return false
}

func (v Vocabulary) add(token, name string) {
	set, ok := v[token]
	if !ok {
		set = make(map[string]struct{})
		v[token] = set
	}
	set[name] = struct{}{}
}

// tokenize splits a value on non-alphanumeric boundaries and on internal
// case-transition/digit boundaries, lowercases the pieces, and drops tokens
// of length <= 2.
func tokenize(value string) []string {
	raw := splitNonAlnum.Split(value, -1)
	raw = append(raw, splitCaseDigit.FindAllString(value, -1)...)

	seen := make(map[string]struct{})
	var tokens []string
	for _, t := range raw {
		clean := strings.ToLower(strings.TrimSpace(t))
		if len(clean) <= 2 {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		tokens = append(tokens, clean)
	}
	return tokens
}

// learnVocabulary scans every identity column across the factory tables and
// accumulates token -> canonical-name mappings. Any per-column failure is
// logged and skipped; a total failure degrades to an empty vocabulary rather
// than blocking startup.
func learnVocabulary(ctx context.Context, db store.FactoryDB) Vocabulary {
	vocab := make(Vocabulary)

	tables, err := db.Tables(ctx)
	if err != nil {
		slog.Warn("Vocabulary learning skipped, could not list tables", "error", err)
		return vocab
	}

	for _, table := range tables {
		cols, err := db.Columns(ctx, table)
		if err != nil {
			slog.Warn("Skipping table for vocabulary learning", "table", table, "error", err)
			continue
		}
		for _, col := range cols {
			if !isIdentityColumn(col.Name) {
				continue
			}
			values, err := db.DistinctValues(ctx, table, col.Name)
			if err != nil {
				slog.Warn("Skipping column for vocabulary learning",
					"table", table, "column", col.Name, "error", err)
				continue
			}
			for _, value := range values {
				for _, token := range tokenize(value) {
					vocab.add(token, value)
				}
			}
		}
	}

	slog.Info("Vocabulary learned", "tokens", len(vocab))
	return vocab
}

func isIdentityColumn(name string) bool {
	upper := strings.ToUpper(name)
	for _, id := range identityColumns {
		if upper == id {
			return true
		}
	}
	return false
}
