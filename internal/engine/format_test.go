package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"factorygpt/internal/domain"
)

func rowOf(pairs ...any) domain.Row {
	row := domain.Row{Values: map[string]any{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		col := pairs[i].(string)
		row.Columns = append(row.Columns, col)
		row.Values[col] = pairs[i+1]
	}
	return row
}

func TestClassifyResultShapes(t *testing.T) {
	t.Parallel()

	scalar := classifyResult(domain.QueryResult{Rows: []domain.Row{
		rowOf("total", 42.0),
	}})
	require.Equal(t, kindScalar, scalar.Kind)
	require.Equal(t, 42.0, scalar.Scalar.Value)

	pair := classifyResult(domain.QueryResult{Rows: []domain.Row{
		rowOf("MACHINE_NAME", "MacLine2A", "max_downtime", 900.0),
	}})
	require.Equal(t, kindEntityMetric, pair.Kind)
	require.Equal(t, "MacLine2A", pair.Pair.Entity)
	require.Equal(t, "max_downtime", pair.Pair.MetricColumn)

	listing := classifyResult(domain.QueryResult{Rows: []domain.Row{
		rowOf("a", 1), rowOf("a", 2), rowOf("a", 3),
	}})
	require.Equal(t, kindListing, listing.Kind)
	require.Equal(t, 3, listing.Listing.Total)
}

func TestFormatProductionCount(t *testing.T) {
	t.Parallel()

	result := domain.QueryResult{Rows: []domain.Row{rowOf("total", 12345.0)}}
	text := formatResponse("what is the total production for macline 2?", result)

	require.Contains(t, text, "12,345")
	require.Contains(t, text, "units")
}

func TestFormatAverageDowntimeWithHours(t *testing.T) {
	t.Parallel()

	result := domain.QueryResult{Rows: []domain.Row{rowOf("avg", 5400.0)}}
	text := formatResponse("average downtime for macline 2 yesterday", result)

	require.Contains(t, text, "average downtime")
	require.Contains(t, text, "5,400 seconds")
	require.Contains(t, text, "1.5 hours")
}

func TestFormatDowntimeQualifiers(t *testing.T) {
	t.Parallel()

	result := domain.QueryResult{Rows: []domain.Row{rowOf("v", 30.0)}}

	require.Contains(t, formatResponse("total downtime today", result), "total downtime")
	require.Contains(t, formatResponse("sum of downtime today", result), "total downtime")
	require.Contains(t, formatResponse("downtime right now", result), "most recent downtime")
}

func TestFormatDurationThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds float64
		want    string
	}{
		{45, "45 seconds"},
		{90, "90 seconds (~1.5 minutes)"},
		{3600, "3,600 seconds (~60.0 minutes)"},
		{5400, "5,400 seconds (~1.5 hours)"},
		{7200, "7,200 seconds (~2.0 hours)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatDuration(tt.seconds), "seconds: %v", tt.seconds)
	}
}

func TestFormatCycleTime(t *testing.T) {
	t.Parallel()

	result := domain.QueryResult{Rows: []domain.Row{rowOf("ct", 12.5)}}

	require.Equal(t, "The average cycle time is 12.50 seconds.",
		formatResponse("average cycletime for mac line 2", result))
	require.Equal(t, "The most recent cycle time is 12.50 seconds.",
		formatResponse("cycle time for mac line 2", result))
}

func TestFormatScalarNonNumeric(t *testing.T) {
	t.Parallel()

	result := domain.QueryResult{Rows: []domain.Row{rowOf("status", "RUNNING")}}
	require.Equal(t, "The result is: RUNNING", formatResponse("status of the machine", result))
}

func TestFormatEntityMetricPhrasing(t *testing.T) {
	t.Parallel()

	result := domain.QueryResult{Rows: []domain.Row{
		rowOf("MACHINE_NAME", "MacLine2A", "v", 12345.0),
	}}

	highest := formatResponse("which machine has the highest production?", result)
	require.Contains(t, highest, "highest production")
	require.Contains(t, highest, "MacLine2A")
	require.Contains(t, highest, "12,345 units")

	lowest := formatResponse("which machine has the lowest downtime?", result)
	require.Contains(t, lowest, "lowest downtime")
}

func TestFormatListingShowsFiveOfEight(t *testing.T) {
	t.Parallel()

	var rows []domain.Row
	for i := 1; i <= 8; i++ {
		rows = append(rows, rowOf("MACHINE_NAME", fmt.Sprintf("machine-%d", i), "v", float64(i)))
	}
	text := formatResponse("list all machines", domain.QueryResult{Rows: rows})

	require.Contains(t, text, "Found 8 results")
	require.Contains(t, text, "machine-5")
	require.NotContains(t, text, "machine-6")
	require.Equal(t, 5, strings.Count(text, "MACHINE_NAME:"))
}

func TestToFloat(t *testing.T) {
	t.Parallel()

	for _, v := range []any{12.5, float32(12.5), int64(12), 12, "12.5", []byte("12.5")} {
		_, ok := toFloat(v)
		require.True(t, ok, "value: %#v", v)
	}
	_, ok := toFloat("not a number")
	require.False(t, ok)
	_, ok = toFloat(nil)
	require.False(t, ok)
}
