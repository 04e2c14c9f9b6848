package twitch

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
	"github.com/antlu/giveaway-assistant/internal/logger"
	"github.com/antlu/giveaway-assistant/internal/testutil"
)

type brokenUsers struct{}

func (brokenUsers) ChannelExists(string) (bool, error) {
	return false, errors.New("helix: 503")
}

func (brokenUsers) DisplayNames(...string) (map[string]string, error) {
	return nil, errors.New("helix: 503")
}

func newTestNotifier(t *testing.T, users UserLookup) (*Notifier, *fakeChat) {
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	chat := &fakeChat{}
	return NewNotifier(chat, users, node, testutil.NewFakeClock(1000), logger.NewNop()), chat
}

func TestNotifier_PostAnnouncementMintsUniqueIDs(t *testing.T) {
	n, chat := newTestNotifier(t, &fakeUsers{})
	event := giveaway.Event{ChannelID: "foo", Prize: "Nitro", WinnerCount: 1, Deadline: 1000 + 86400}

	first, err := n.PostAnnouncement(context.Background(), event)
	require.NoError(t, err)
	second, err := n.PostAnnouncement(context.Background(), event)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	require.Len(t, chat.lines, 2)
	assert.Equal(t, "foo", chat.lines[0].channel)
	assert.Equal(t, "Giveaway "+first+" started: Nitro! 1 winner, ends in 1d. Type !enter "+first+" to join", chat.lines[0].text)
}

func TestNotifier_CheckReference(t *testing.T) {
	ctx := context.Background()
	event := giveaway.Event{ID: "1", ChannelID: "foo"}

	n, _ := newTestNotifier(t, &fakeUsers{gone: map[string]bool{}})
	assert.NoError(t, n.CheckReference(ctx, event))

	n, _ = newTestNotifier(t, &fakeUsers{gone: map[string]bool{"foo": true}})
	assert.ErrorIs(t, n.CheckReference(ctx, event), giveaway.ErrReferenceGone)

	n, _ = newTestNotifier(t, brokenUsers{})
	err := n.CheckReference(ctx, event)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, giveaway.ErrReferenceGone)
}

func TestNotifier_RenderResolution(t *testing.T) {
	ctx := context.Background()
	event := giveaway.Event{ID: "7", ChannelID: "foo", Prize: "Nitro"}

	n, chat := newTestNotifier(t, brokenUsers{})
	require.NoError(t, n.RenderResolution(ctx, giveaway.Result{Event: event}))
	assert.Equal(t, "Giveaway 7 (Nitro) is over. Nobody entered, so there are no winners", chat.last())

	// Display names are optional; ids stand in for them.
	entries := []giveaway.Entry{{UserID: "u1", EventID: "7"}, {UserID: "u2", EventID: "7"}}
	require.NoError(t, n.RenderResolution(ctx, giveaway.Result{Event: event, Entries: entries, Winners: entries}))
	assert.Equal(t, "Giveaway 7 (Nitro) is over! Congratulations u1, u2, out of 2 entries", chat.last())

	require.NoError(t, n.DeleteAnnouncement(ctx, event))
	assert.Equal(t, "Giveaway 7 (Nitro) was cancelled", chat.last())
}
