package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestGiveaway(t *testing.T, s *Store, id string, deadline int64, resolved bool) giveaway.Event {
	t.Helper()
	event := giveaway.Event{
		ID:          id,
		ChannelID:   "chan-1",
		HostID:      "host-1",
		Prize:       "Steam key",
		WinnerCount: 1,
		Deadline:    deadline,
		Resolved:    resolved,
	}
	require.NoError(t, s.Create(context.Background(), &event))
	return event
}
