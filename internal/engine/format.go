package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"factorygpt/internal/domain"
)

// listingLimit caps how many rows a multi-row answer renders.
const listingLimit = 5

// resultKind tags the structural shape of a successful result set.
type resultKind int

const (
	kindScalar resultKind = iota
	kindEntityMetric
	kindListing
)

// classifiedResult is the tagged union over the three result shapes. Exactly
// one variant is populated, per Kind.
type classifiedResult struct {
	Kind    resultKind
	Scalar  scalarResult
	Pair    entityMetricResult
	Listing listingResult
}

// scalarResult is a single-row, single-column value.
type scalarResult struct {
	Column string
	Value  any
}

// entityMetricResult is a single row naming an entity plus one metric value.
type entityMetricResult struct {
	Entity       string
	MetricColumn string
	Value        any
}

// listingResult is a multi-row result with its true total.
type listingResult struct {
	Rows  []domain.Row
	Total int
}

// classifyResult maps a non-empty result set onto the tagged union using
// only row and column counts. Classification is purely structural.
func classifyResult(result domain.QueryResult) classifiedResult {
	rows := result.Rows

	if len(rows) == 1 && len(rows[0].Columns) == 1 {
		col := rows[0].Columns[0]
		return classifiedResult{
			Kind:   kindScalar,
			Scalar: scalarResult{Column: col, Value: rows[0].Values[col]},
		}
	}

	if len(rows) == 1 {
		row := rows[0]
		entity, entityCol := entityFromRow(row)
		if entity != "" {
			for _, col := range row.Columns {
				if col == entityCol || isIdentityColumn(col) {
					continue
				}
				return classifiedResult{
					Kind: kindEntityMetric,
					Pair: entityMetricResult{Entity: entity, MetricColumn: col, Value: row.Values[col]},
				}
			}
		}
		// Single row without a recognizable entity column reads best as a
		// one-row listing.
		return classifiedResult{
			Kind:    kindListing,
			Listing: listingResult{Rows: rows, Total: 1},
		}
	}

	return classifiedResult{
		Kind:    kindListing,
		Listing: listingResult{Rows: rows, Total: len(rows)},
	}
}

func entityFromRow(row domain.Row) (value, column string) {
	for _, col := range row.Columns {
		if isIdentityColumn(col) {
			if s, ok := row.Values[col].(string); ok && s != "" {
				return s, col
			}
		}
	}
	return "", ""
}

// formatResponse renders a non-empty result set as a human-readable answer.
// Phrasing is chosen by scanning the question for domain keywords; no model
// call happens here, so the final answer stays deterministic and auditable.
func formatResponse(question string, result domain.QueryResult) string {
	classified := classifyResult(result)
	lower := strings.ToLower(question)

	switch classified.Kind {
	case kindScalar:
		return formatScalar(lower, classified.Scalar)
	case kindEntityMetric:
		return formatEntityMetric(lower, classified.Pair)
	default:
		return formatListing(classified.Listing)
	}
}

func formatScalar(questionLower string, scalar scalarResult) string {
	value, ok := toFloat(scalar.Value)
	if !ok {
		return fmt.Sprintf("The result is: %v", scalar.Value)
	}

	switch {
	case containsAny(questionLower, "production", "count"):
		return fmt.Sprintf("The total production count is %s units.", formatCount(value))
	case strings.Contains(questionLower, "downtime"):
		return fmt.Sprintf("The %s downtime is %s.", durationQualifier(questionLower), formatDuration(value))
	case containsAny(questionLower, "cycletime", "cycle time"):
		if containsAny(questionLower, "average", "avg") {
			return fmt.Sprintf("The average cycle time is %s seconds.", formatFloat2(value))
		}
		return fmt.Sprintf("The most recent cycle time is %s seconds.", formatFloat2(value))
	default:
		return fmt.Sprintf("The result is %s.", formatFloat2(value))
	}
}

// durationQualifier derives the average/total/most-recent wording from the
// question itself.
func durationQualifier(questionLower string) string {
	switch {
	case containsAny(questionLower, "average", "avg"):
		return "average"
	case containsAny(questionLower, "total", "sum"):
		return "total"
	default:
		return "most recent"
	}
}

func formatEntityMetric(questionLower string, pair entityMetricResult) string {
	value, ok := toFloat(pair.Value)
	if !ok {
		return fmt.Sprintf("Found data for %s: %v", pair.Entity, pair.Value)
	}

	operation := "highest"
	if strings.Contains(questionLower, "lowest") {
		operation = "lowest"
	}

	switch {
	case strings.Contains(questionLower, "downtime"):
		return fmt.Sprintf("The machine with the %s downtime is %s with %s.",
			operation, pair.Entity, formatDuration(value))
	case containsAny(questionLower, "cycletime", "cycle time"):
		return fmt.Sprintf("The machine with the %s cycle time is %s with %s seconds.",
			operation, pair.Entity, formatFloat2(value))
	case strings.Contains(questionLower, "production"):
		return fmt.Sprintf("The machine with the %s production is %s with %s units.",
			operation, pair.Entity, formatCount(value))
	default:
		return fmt.Sprintf("Found data for %s: %s.", pair.Entity, formatFloat2(value))
	}
}

func formatListing(listing listingResult) string {
	limit := listingLimit
	if limit > len(listing.Rows) {
		limit = len(listing.Rows)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results. Here are the top %d:\n", listing.Total, limit)
	for i := 0; i < limit; i++ {
		row := listing.Rows[i]
		parts := make([]string, 0, len(row.Columns))
		for _, col := range row.Columns {
			parts = append(parts, fmt.Sprintf("%s: %v", col, row.Values[col]))
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatDuration renders seconds with an hours or minutes equivalent when
// the value is large enough to warrant one.
func formatDuration(seconds float64) string {
	base := formatCount(seconds) + " seconds"
	switch {
	case seconds > 3600:
		return fmt.Sprintf("%s (~%.1f hours)", base, seconds/3600)
	case seconds > 60:
		return fmt.Sprintf("%s (~%.1f minutes)", base, seconds/60)
	default:
		return base
	}
}

// formatCount renders a value as a comma-grouped integer.
func formatCount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// formatFloat2 renders a value with two decimals and comma-grouped integer
// digits.
func formatFloat2(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, fracPart, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	return humanize.Comma(n) + "." + fracPart
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f, err == nil
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
