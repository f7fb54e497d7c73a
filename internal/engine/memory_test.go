package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"factorygpt/internal/domain"
)

func TestConversationWindowEvictsOldest(t *testing.T) {
	t.Parallel()

	conv := &conversation{capacity: 4}
	for i := 1; i <= 6; i++ {
		conv.append(domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)})
	}

	turns := conv.recent(10)
	require.Len(t, turns, 4)
	require.Equal(t, "q3", turns[0].Content)
	require.Equal(t, "q6", turns[3].Content)
}

func TestConversationRecentReturnsWindow(t *testing.T) {
	t.Parallel()

	conv := &conversation{capacity: 10}
	conv.append(
		domain.Turn{Role: domain.RoleUser, Content: "a"},
		domain.Turn{Role: domain.RoleAssistant, Content: "b"},
		domain.Turn{Role: domain.RoleUser, Content: "c"},
	)

	turns := conv.recent(2)
	require.Len(t, turns, 2)
	require.Equal(t, "b", turns[0].Content)
	require.Equal(t, "c", turns[1].Content)
}

func TestSessionRegistryReusesSessions(t *testing.T) {
	t.Parallel()

	reg := newSessionRegistry(10)
	c1 := reg.get("s1")
	c2 := reg.get("s1")
	c3 := reg.get("s2")

	require.Same(t, c1, c2)
	require.NotSame(t, c1, c3)
}

func TestResolveFollowUp(t *testing.T) {
	t.Parallel()

	vocab := make(Vocabulary)
	vocab.add("galvatron", "GALVATRON-TRX")

	withEntity := domain.SessionContext{LastEntity: "GALVATRON-TRX", LastMetric: "downtime"}

	tests := []struct {
		name     string
		question string
		sessCtx  domain.SessionContext
		want     string
	}{
		{
			"marker with remembered entity",
			"what about the production for that machine",
			withEntity,
			"what about the production for that machine (referring to GALVATRON-TRX)",
		},
		{
			"no prior context",
			"what about the production for that machine",
			domain.SessionContext{},
			"what about the production for that machine",
		},
		{
			"question names its own entity",
			"what about galvatron production",
			withEntity,
			"what about galvatron production",
		},
		{
			"no follow-up marker",
			"total production yesterday",
			withEntity,
			"total production yesterday",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, resolveFollowUp(tt.question, tt.sessCtx, vocab))
		})
	}
}
