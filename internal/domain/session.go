package domain

// SessionContext remembers what the last successfully answered data question
// was about, so follow-up references ("same machine", "that metric") can be
// resolved before planning. It is owned by and scoped to one session.
type SessionContext struct {
	LastEntity      string
	LastMetric      string
	LastContextType string
}

// HasEntity reports whether a prior data answer established an entity.
func (c SessionContext) HasEntity() bool {
	return c.LastEntity != ""
}
