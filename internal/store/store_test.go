package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antlu/giveaway-assistant/internal/errorx"
	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

func TestStore_CreateAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	event := giveaway.Event{
		ID:           "100",
		ChannelID:    "chan-1",
		HostID:       "host-1",
		Prize:        "Nitro",
		WinnerCount:  3,
		Deadline:     5000,
		RequiredRole: "subscriber",
	}
	require.NoError(t, s.Create(ctx, &event))

	got, err := s.Get(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, event, *got)

	missing, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_CreateDuplicateID(t *testing.T) {
	s := createTestStore(t)
	createTestGiveaway(t, s, "1", 10, false)

	event := giveaway.Event{ID: "1", ChannelID: "c", HostID: "h", Prize: "p", WinnerCount: 1}
	err := s.Create(context.Background(), &event)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))
}

func TestStore_CreateRejectsZeroWinners(t *testing.T) {
	s := createTestStore(t)

	event := giveaway.Event{ID: "1", ChannelID: "c", HostID: "h", Prize: "p", WinnerCount: 0}
	err := s.Create(context.Background(), &event)
	assert.True(t, errors.Is(err, errorx.ErrInvalidArgument))
}

func TestStore_Lists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	createTestGiveaway(t, s, "a", 100, false)
	createTestGiveaway(t, s, "b", 200, true)
	other := giveaway.Event{ID: "c", ChannelID: "chan-2", HostID: "host-2", Prize: "p", WinnerCount: 1, Deadline: 300}
	require.NoError(t, s.Create(ctx, &other))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byHost, err := s.ListByHost(ctx, "host-2")
	require.NoError(t, err)
	require.Len(t, byHost, 1)
	assert.Equal(t, "c", byHost[0].ID)

	none, err := s.ListByHost(ctx, "host-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ListDue(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	createTestGiveaway(t, s, "past", 99, false)
	createTestGiveaway(t, s, "exact", 100, false)
	createTestGiveaway(t, s, "future", 101, false)
	createTestGiveaway(t, s, "done", 50, true)

	due, err := s.ListDue(ctx, 100)
	require.NoError(t, err)

	ids := []string{}
	for _, e := range due {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"past", "exact"}, ids)
}

func TestStore_MarkResolvedIsCompareAndSet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestGiveaway(t, s, "1", 10, false)

	ok, err := s.MarkResolved(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkResolved(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MarkResolved(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ResolveNowRewritesDeadlineOnlyOnFlip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestGiveaway(t, s, "1", 10_000, false)

	ok, err := s.ResolveNow(ctx, "1", 500)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, int64(500), got.Deadline)

	ok, err = s.ResolveNow(ctx, "1", 900)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Deadline)
}

func TestStore_ConcurrentMarkResolvedSingleWinner(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestGiveaway(t, s, "1", 10, false)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			var err error
			if i%2 == 0 {
				ok, err = s.MarkResolved(ctx, "1")
			} else {
				ok, err = s.ResolveNow(ctx, "1", 42)
			}
			if assert.NoError(t, err) && ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestStore_RewriteDeadline(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestGiveaway(t, s, "1", 10, false)

	require.NoError(t, s.RewriteDeadline(ctx, "1", 77))

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.Deadline)
}

func TestStore_Entries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestGiveaway(t, s, "1", 10, false)

	require.NoError(t, s.AddEntry(ctx, "u1", "1"))
	require.NoError(t, s.AddEntry(ctx, "u2", "1"))

	err := s.AddEntry(ctx, "u1", "1")
	assert.True(t, errors.Is(err, errorx.ErrDuplicateEntry))

	err = s.AddEntry(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, errorx.ErrNotFound))

	entry, err := s.GetEntry(ctx, "u2", "1")
	require.NoError(t, err)
	assert.Equal(t, &giveaway.Entry{UserID: "u2", EventID: "1"}, entry)

	entries, err := s.ListEntries(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []giveaway.Entry{{UserID: "u1", EventID: "1"}, {UserID: "u2", EventID: "1"}}, entries)

	require.NoError(t, s.RemoveEntry(ctx, "u1", "1"))
	entry, err = s.GetEntry(ctx, "u1", "1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_DeleteCascadesEntries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestGiveaway(t, s, "1", 10, false)
	createTestGiveaway(t, s, "2", 10, false)
	require.NoError(t, s.AddEntry(ctx, "u1", "1"))
	require.NoError(t, s.AddEntry(ctx, "u2", "1"))
	require.NoError(t, s.AddEntry(ctx, "u1", "2"))

	require.NoError(t, s.Delete(ctx, "1"))

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, got)

	entries, err := s.ListEntries(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = s.ListEntries(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_DeleteExpired(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	const now, retention = int64(1_000_000), giveaway.DefaultRetention

	createTestGiveaway(t, s, "old", now-retention-1, true)
	createTestGiveaway(t, s, "edge", now-retention, true)
	createTestGiveaway(t, s, "young", now-retention+1, true)
	createTestGiveaway(t, s, "open", now-retention-1, false)
	require.NoError(t, s.AddEntry(ctx, "u1", "old"))

	expired, err := s.ListExpired(ctx, now, retention)
	require.NoError(t, err)
	assert.Len(t, expired, 2)

	deleted, err := s.DeleteExpired(ctx, now, retention)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := s.ListAll(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, e := range left {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"young", "open"}, ids)

	var orphans int
	require.NoError(t, s.QueryRow("SELECT COUNT(*) FROM giveaway_entries").Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestStore_TableLifecycle(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "admin.sqlite3"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	exists, err := s.TablesExist(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Migrate(ctx))
	exists, err = s.TablesExist(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	createTestGiveaway(t, s, "1", 10, false)
	require.NoError(t, s.ResetTables(ctx))
	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, s.DropTables(ctx))
	exists, err = s.TablesExist(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ClosedIsUnavailable(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.ListDue(context.Background(), 10)
	assert.True(t, errors.Is(err, errorx.ErrStoreUnavailable))
}
