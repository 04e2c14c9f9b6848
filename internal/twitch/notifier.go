package twitch

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
	"github.com/antlu/giveaway-assistant/internal/logger"
)

type Sayer interface {
	Say(channel, text string)
}

type UserLookup interface {
	ChannelExists(login string) (bool, error)
	DisplayNames(ids ...string) (map[string]string, error)
}

// Notifier renders giveaway announcements into Twitch chat. Chat messages have
// no retrievable id, so each announcement gets a snowflake id that viewers
// use to enter.
type Notifier struct {
	say   Sayer
	users UserLookup
	node  *snowflake.Node
	clock giveaway.Clock
	log   logger.Logger
}

func NewNotifier(say Sayer, users UserLookup, node *snowflake.Node, clock giveaway.Clock, log logger.Logger) *Notifier {
	return &Notifier{say: say, users: users, node: node, clock: clock, log: log}
}

func (n *Notifier) PostAnnouncement(_ context.Context, event giveaway.Event) (string, error) {
	id := n.node.Generate().String()

	var b strings.Builder
	fmt.Fprintf(&b, "Giveaway %s started: %s! %s, ends in %s.", id, event.Prize,
		plural(event.WinnerCount, "winner"), formatRemaining(event.Deadline-n.clock.Now()))
	if event.RequiredRole != "" {
		fmt.Fprintf(&b, " Only for %s.", event.RequiredRole)
	}
	fmt.Fprintf(&b, " Type !enter %s to join", id)

	n.say.Say(event.ChannelID, b.String())
	return id, nil
}

func (n *Notifier) CheckReference(_ context.Context, event giveaway.Event) error {
	exists, err := n.users.ChannelExists(event.ChannelID)
	if err != nil {
		return fmt.Errorf("error checking channel %s: %w", event.ChannelID, err)
	}
	if !exists {
		return giveaway.ErrReferenceGone
	}
	return nil
}

func (n *Notifier) RenderResolution(_ context.Context, result giveaway.Result) error {
	event := result.Event
	if len(result.Winners) == 0 {
		n.say.Say(event.ChannelID, fmt.Sprintf("Giveaway %s (%s) is over. Nobody entered, so there are no winners", event.ID, event.Prize))
		return nil
	}

	names := n.winnerNames(result)
	n.say.Say(event.ChannelID, fmt.Sprintf("Giveaway %s (%s) is over! Congratulations %s, out of %s",
		event.ID, event.Prize, strings.Join(names, ", "), plural(len(result.Entries), "entry")))
	return nil
}

func (n *Notifier) RenderReroll(_ context.Context, result giveaway.Result) error {
	event := result.Event
	if len(result.Winners) == 0 {
		n.say.Say(event.ChannelID, fmt.Sprintf("Giveaway %s (%s) has no entries to reroll", event.ID, event.Prize))
		return nil
	}

	names := n.winnerNames(result)
	n.say.Say(event.ChannelID, fmt.Sprintf("New winners of giveaway %s (%s): %s", event.ID, event.Prize, strings.Join(names, ", ")))
	return nil
}

// DeleteAnnouncement cannot take a chat message back, so it posts a
// retraction instead.
func (n *Notifier) DeleteAnnouncement(_ context.Context, event giveaway.Event) error {
	n.say.Say(event.ChannelID, fmt.Sprintf("Giveaway %s (%s) was cancelled", event.ID, event.Prize))
	return nil
}

func (n *Notifier) winnerNames(result giveaway.Result) []string {
	ids := result.WinnerIDs()

	names, err := n.users.DisplayNames(ids...)
	if err != nil {
		n.log.Warnf("Cannot get display names of winners of giveaway %s: %v", result.Event.ID, err)
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok && name != "" {
			out = append(out, "@"+name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	if strings.HasSuffix(word, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// formatRemaining renders seconds as e.g. "1d 2h 5m". Anything under a minute
// is shown in seconds.
func formatRemaining(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", max(seconds, 0))
	}

	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60

	parts := []string{}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}

var _ giveaway.Notifier = (*Notifier)(nil)
