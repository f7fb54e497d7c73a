package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  []string
	}{
		{"MacLine2A", []string{"macline2a", "mac", "line"}},
		{"mac_line_2b", []string{"mac", "line"}},
		{"GALVATRON-TRX-BULLET", []string{"galvatron", "trx", "bullet"}},
		{"A1", nil},
		{"", nil},
	}
	for _, tt := range tests {
		require.ElementsMatch(t, tt.want, tokenize(tt.value), "value: %q", tt.value)
	}
}

func TestLearnVocabularyMapsTokensToCanonicalNames(t *testing.T) {
	t.Parallel()

	db := newFakeDB()
	db.distinct["TBL_LIVE_MQTT_DATA.MACHINE_NAME"] = []string{"MacLine2A", "mac_line_2b"}

	vocab := learnVocabulary(context.Background(), db)

	require.ElementsMatch(t, []string{"MacLine2A", "mac_line_2b"}, vocab.Lookup("mac"))
	require.ElementsMatch(t, []string{"MacLine2A", "mac_line_2b"}, vocab.Lookup("line"))
	require.ElementsMatch(t, []string{"MacLine2A"}, vocab.Lookup("macline2a"))
	require.Empty(t, vocab.Lookup("2"), "tokens of length <= 2 are discarded")
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	vocab := make(Vocabulary)
	vocab.add("galvatron", "GALVATRON-TRX")
	require.Equal(t, []string{"GALVATRON-TRX"}, vocab.Lookup("GALVATRON"))
}

func TestLearnVocabularyDegradesOnFailure(t *testing.T) {
	t.Parallel()

	db := newFakeDB()
	db.tablesErr = errTest

	vocab := learnVocabulary(context.Background(), db)
	require.Empty(t, vocab, "a failed scan degrades to an empty vocabulary")
}

func TestContainsKnownToken(t *testing.T) {
	t.Parallel()

	vocab := make(Vocabulary)
	vocab.add("galvatron", "GALVATRON-TRX")

	require.True(t, vocab.ContainsKnownToken("downtime for Galvatron yesterday"))
	require.False(t, vocab.ContainsKnownToken("downtime for the same machine"))
}
