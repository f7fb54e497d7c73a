package domain

// Candidate is a proposed (table, column) pair hypothesized to answer a data
// question. Candidates are consumed once, in the order the planner ranked
// them; a candidate that fails downstream is abandoned, not re-synthesized.
type Candidate struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Valid reports whether both halves of the candidate are present.
func (c Candidate) Valid() bool {
	return c.Table != "" && c.Column != ""
}

// Row is one result row with its column order preserved. Values is keyed by
// column name; Columns records the order the data source returned them in.
type Row struct {
	Columns []string
	Values  map[string]any
}

// Value returns the value of the i-th column.
func (r Row) Value(i int) any {
	if i < 0 || i >= len(r.Columns) {
		return nil
	}
	return r.Values[r.Columns[i]]
}

// QueryResult is the ordered row set produced by one executed query. It is
// transient: it lives only for the duration of a single request.
type QueryResult struct {
	Rows []Row
}

// Empty reports whether the result set has no rows.
func (q QueryResult) Empty() bool {
	return len(q.Rows) == 0
}
