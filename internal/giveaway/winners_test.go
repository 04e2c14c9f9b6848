package giveaway

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(n int) []Entry {
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, Entry{UserID: fmt.Sprintf("user-%d", i), EventID: "1"})
	}
	return entries
}

func TestShuffleSelector_Sizes(t *testing.T) {
	selector := ShuffleSelector{}

	for n := 0; n <= 6; n++ {
		for k := 0; k <= 8; k++ {
			entries := makeEntries(n)
			winners := selector.SelectWinners(entries, k)

			require.Len(t, winners, min(k, n), "n=%d k=%d", n, k)

			seen := map[string]bool{}
			for _, w := range winners {
				assert.False(t, seen[w.UserID], "duplicate winner %s", w.UserID)
				seen[w.UserID] = true
				assert.Contains(t, entries, w)
			}
		}
	}
}

func TestShuffleSelector_Empty(t *testing.T) {
	winners := ShuffleSelector{}.SelectWinners(nil, 3)
	assert.NotNil(t, winners)
	assert.Empty(t, winners)
}

func TestShuffleSelector_DoesNotMutateInput(t *testing.T) {
	entries := makeEntries(5)
	before := append([]Entry(nil), entries...)

	ShuffleSelector{}.SelectWinners(entries, 3)

	assert.Equal(t, before, entries)
}

func TestShuffleSelector_Deterministic(t *testing.T) {
	// Always pick the last remaining candidate.
	selector := ShuffleSelector{Intn: func(n int) int { return n - 1 }}

	winners := selector.SelectWinners(makeEntries(4), 2)

	assert.Equal(t, []Entry{{UserID: "user-3", EventID: "1"}, {UserID: "user-0", EventID: "1"}}, winners)
}

func TestShuffleSelector_Uniform(t *testing.T) {
	const draws = 30000
	entries := makeEntries(4)
	counts := map[string]int{}

	for i := 0; i < draws; i++ {
		for _, w := range (ShuffleSelector{}).SelectWinners(entries, 2) {
			counts[w.UserID]++
		}
	}

	// Each entrant is drawn with probability 1/2.
	for _, e := range entries {
		assert.InDelta(t, draws/2, counts[e.UserID], draws*0.05, e.UserID)
	}
}
