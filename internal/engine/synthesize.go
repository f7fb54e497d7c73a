package engine

import (
	"context"
	"fmt"
	"strings"

	"factorygpt/internal/domain"
)

// fewShotExamples are the worked examples in the synthesis prompt. They
// encode the house rules: token-split entity filters, null-safe numeric
// casts, and most-recent-value semantics on the live table.
const fewShotExamples = `### EXAMPLES ###

-- Question: which machine has the highest downtime for macline-2 for yesterday?
SELECT MACHINE_NAME, MAX(CAST(COALESCE(NULLIF(ROBOT_DOWNTIME, ''), '0') AS REAL)) AS max_downtime
FROM HOURLY_RUNNING_IDLE_DOWNTIME
WHERE (UPPER(MACHINE_NAME) LIKE '%MAC%LINE%2%' OR MACHINE_GROUP = 'MACLINE-2')
  AND date(CREATED_DATE) = date('now', '-1 day')
GROUP BY MACHINE_NAME
ORDER BY max_downtime DESC
LIMIT 1

-- Question: average cycletime for mac line 2 dual robot for may 2025
SELECT AVG(CAST(COALESCE(NULLIF(CYCLE_TIME, ''), '0') AS REAL)) AS avg_cycle_time
FROM TBL_LIVE_MQTT_DATA
WHERE (UPPER(MACHINE_NAME) LIKE '%MAC%' AND UPPER(MACHINE_NAME) LIKE '%LINE%' AND UPPER(MACHINE_NAME) LIKE '%DUAL%')
  AND date(CREATED_DATE) >= '2025-05-01'
  AND date(CREATED_DATE) < '2025-06-01'
`

// buildSynthesisPrompt turns one candidate into a constrained SQL-generation
// request. The prompt pins the table and column so the model cannot wander
// off the planned target.
func buildSynthesisPrompt(question, schema string, candidate domain.Candidate) string {
	var b strings.Builder
	b.WriteString("Write a flawless SQLite query to answer the user's question.\n")
	b.WriteString(fmt.Sprintf("MUST use table: %s\n", candidate.Table))
	b.WriteString(fmt.Sprintf("MUST use column: %s\n\n", candidate.Column))
	b.WriteString("RULES:\n")
	b.WriteString("1. AGGREGATION:\n")
	b.WriteString("   - Use SUM/AVG/COUNT/MAX/MIN for \"total\"/\"average\"/\"highest\"/\"lowest\"\n")
	b.WriteString("   - For \"what is [metric]\" on live tables: SELECT ... ORDER BY CREATED_DATE DESC LIMIT 1\n")
	b.WriteString("2. FILTERING:\n")
	b.WriteString("   - Split machine keywords: \"galvatron trx bullet\" -> UPPER(MACHINE_NAME) LIKE '%GALVATRON%' AND UPPER(MACHINE_NAME) LIKE '%TRX%' AND UPPER(MACHINE_NAME) LIKE '%BULLET%'\n")
	b.WriteString("   - Machine groups: (UPPER(MACHINE_NAME) LIKE '%MACLINE%1%' OR MACHINE_GROUP = 'MACLINE-1')\n")
	b.WriteString("3. NULL HANDLING:\n")
	b.WriteString(fmt.Sprintf("   - Wrap metrics: CAST(COALESCE(NULLIF(%s, ''), '0') AS REAL)\n\n", candidate.Column))
	b.WriteString("SCHEMA:\n")
	b.WriteString(schema)
	b.WriteString("\n\n")
	b.WriteString(fewShotExamples)
	b.WriteString(fmt.Sprintf("\nUser Question: %q\n\n", question))
	b.WriteString("Return ONLY the SQL query.\n")
	return b.String()
}

// cleanSQL strips markdown fencing and trailing semicolons from the model's
// output. The result is still untrusted until the safety gate approves it.
func cleanSQL(raw string) string {
	s := stripCodeFences(raw)
	return strings.TrimSpace(strings.TrimRight(s, ";"))
}

// synthesize generates one concrete query for a candidate. Pure text
// generation: no execution happens here.
func (e *Engine) synthesize(ctx context.Context, question string, candidate domain.Candidate) (string, error) {
	prompt := buildSynthesisPrompt(question, e.schema, candidate)

	raw, err := e.llm.Chat(ctx, []domain.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("synthesis model call: %w", err)
	}

	query := cleanSQL(raw)
	if query == "" {
		return "", fmt.Errorf("synthesis produced an empty query")
	}
	return query, nil
}
