package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"factorygpt/internal/domain"
)

// chartIndicators flag questions asking for a visual rather than a number.
var chartIndicators = []string{"chart", "graph", "plot", "trend"}

// chartRowLimit caps how many grouped bars a chart shows.
const chartRowLimit = 10

func isChartRequest(question string) bool {
	lower := strings.ToLower(question)
	for _, indicator := range chartIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// chartTarget locates a table that carries both an identity column and a
// column matching the requested metric, using the layout discovered at init.
type chartTarget struct {
	Table        string
	EntityColumn string
	MetricColumn string
	Aggregate    string
}

// findChartTarget resolves the metric mentioned in the question to a
// concrete (table, entity column, metric column) triple. Cycle-time charts
// average; everything else sums.
func (e *Engine) findChartTarget(question string) (chartTarget, bool) {
	metric := metricKeyword(question)
	if metric == "" {
		return chartTarget{}, false
	}

	fragment := map[string]string{
		"downtime":   "DOWNTIME",
		"production": "PRODUCTION",
		"cycle time": "CYCLE",
	}[metric]

	aggregate := "SUM"
	if metric == "cycle time" {
		aggregate = "AVG"
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for table, columns := range e.layout {
		var entityCol, metricCol string
		for _, col := range columns {
			upper := strings.ToUpper(col)
			if entityCol == "" && isIdentityColumn(col) {
				entityCol = col
			}
			if metricCol == "" && strings.Contains(upper, fragment) {
				metricCol = col
			}
		}
		if entityCol != "" && metricCol != "" {
			return chartTarget{
				Table:        table,
				EntityColumn: entityCol,
				MetricColumn: metricCol,
				Aggregate:    aggregate,
			}, true
		}
	}
	return chartTarget{}, false
}

// buildChartQuery assembles the deterministic grouped-aggregation query for
// a chart target. The query still passes through the safety gate before
// execution, like every other statement.
func buildChartQuery(target chartTarget, entityFilter []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, %s(CAST(COALESCE(NULLIF(%s, ''), '0') AS REAL)) AS metric_value\nFROM %s",
		target.EntityColumn, target.Aggregate, target.MetricColumn, target.Table)
	if len(entityFilter) > 0 {
		conditions := make([]string, 0, len(entityFilter))
		for _, token := range entityFilter {
			conditions = append(conditions,
				fmt.Sprintf("UPPER(%s) LIKE '%%%s%%'", target.EntityColumn, strings.ToUpper(token)))
		}
		fmt.Fprintf(&b, "\nWHERE %s", strings.Join(conditions, " AND "))
	}
	fmt.Fprintf(&b, "\nGROUP BY %s\nORDER BY metric_value DESC\nLIMIT %d", target.EntityColumn, chartRowLimit)
	return b.String()
}

// handleChart serves the graph/aggregation branch: a deterministic grouped
// query, then a chart artifact. Zero matching rows yields a no-result answer
// and no artifact.
func (e *Engine) handleChart(ctx context.Context, sessionID string, conv *conversation, question, resolved string) (domain.Answer, error) {
	target, ok := e.findChartTarget(resolved)
	if !ok {
		return domain.Answer{}, newError(ErrorPlanning,
			"I couldn't tell which metric to chart. Try asking for a downtime, production, or cycle time chart.", nil)
	}

	e.mu.RLock()
	vocab := e.vocab
	e.mu.RUnlock()

	// Tokens of the question that name known machines narrow the chart to
	// those machines; otherwise the chart covers everything.
	var filter []string
	for _, token := range tokenize(resolved) {
		if len(vocab.Lookup(token)) > 0 {
			filter = append(filter, token)
		}
	}

	query := buildChartQuery(target, filter)
	if err := CheckQuery(query); err != nil {
		return domain.Answer{}, newError(ErrorExhaustion, msgExhausted, err)
	}

	result, err := e.db.Query(ctx, query)
	if err != nil {
		slog.Warn("Chart query failed", "session_id", sessionID, "error", err, "sql", query)
		return domain.Answer{}, newError(ErrorExhaustion, msgExhausted, err)
	}
	if result.Empty() {
		return domain.Answer{}, newError(ErrorExhaustion,
			"I couldn't find any data matching that chart request.", nil)
	}

	points := make([]ChartPoint, 0, len(result.Rows))
	for _, row := range result.Rows {
		label, _ := row.Values[target.EntityColumn].(string)
		value, okVal := toFloat(row.Values["metric_value"])
		if label == "" || !okVal {
			continue
		}
		points = append(points, ChartPoint{Label: label, Value: value})
	}
	if len(points) == 0 {
		return domain.Answer{}, newError(ErrorExhaustion,
			"I couldn't find any data matching that chart request.", nil)
	}

	metric := metricKeyword(resolved)
	chartRef, err := e.charts.Render(metric, target.EntityColumn, points)
	if err != nil {
		slog.Error("Chart rendering failed", "session_id", sessionID, "error", err)
		return domain.Answer{}, newError(ErrorExhaustion, msgExhausted, err)
	}

	text := fmt.Sprintf("Here's a chart of %s by machine, covering %d machines. The top machine is %s.",
		metric, len(points), points[0].Label)

	conv.append(
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: text, SQLExecuted: query},
	)
	e.updateSessionContext(conv, question, result, "chart")

	return domain.Answer{Text: text, Chart: chartRef, SessionID: sessionID}, nil
}
