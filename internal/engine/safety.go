package engine

import (
	"fmt"
	"strings"
)

// disallowedKeywords are the mutating and schema-altering operations blocked
// before execution. The scan is a raw substring check over the case-normalized
// statement: deliberately conservative, so a read-only query that merely
// mentions one of these words (a column named update_count, a keyword inside
// a comment) is also rejected. Over-blocking is the accepted tradeoff; no
// query that reaches the executor may mutate state.
var disallowedKeywords = []string{
	"DELETE", "DROP", "UPDATE", "INSERT", "TRUNCATE", "ALTER", "EXEC", "GRANT",
}

// CheckQuery approves or rejects a synthesized query. A nil return means the
// statement contains none of the disallowed keywords. This is the single
// auditable gate between query synthesis and execution.
func CheckQuery(query string) error {
	upper := strings.ToUpper(query)
	for _, keyword := range disallowedKeywords {
		if strings.Contains(upper, keyword) {
			return fmt.Errorf("query contains restricted keyword %s", keyword)
		}
	}
	return nil
}
