package giveaway

import "math/rand/v2"

type Selector interface {
	SelectWinners(entries []Entry, count int) []Entry
}

// ShuffleSelector draws winners as the prefix of a random permutation, which
// is uniform over all winner subsets of the requested size.
type ShuffleSelector struct {
	// Intn defaults to rand.IntN.
	Intn func(n int) int
}

func (s ShuffleSelector) SelectWinners(entries []Entry, count int) []Entry {
	if len(entries) == 0 || count <= 0 {
		return []Entry{}
	}

	intn := s.Intn
	if intn == nil {
		intn = rand.IntN
	}

	pool := make([]Entry, len(entries))
	copy(pool, entries)

	k := min(count, len(pool))
	for i := 0; i < k; i++ {
		j := i + intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:k]
}
