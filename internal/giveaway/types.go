package giveaway

import "errors"

const (
	DefaultWinnerCount = 1
	MaxPrizeLength     = 100

	// MaxDurationSeconds caps a giveaway at one year.
	MaxDurationSeconds int64 = 365 * 86400

	// DefaultRetention is how long a resolved giveaway is kept past its
	// deadline before the retention sweep removes it.
	DefaultRetention int64 = 172800
)

// ErrReferenceGone is returned by a Notifier when the channel or message an
// event points at no longer exists on the platform.
var ErrReferenceGone = errors.New("platform reference gone")

type Event struct {
	ID           string
	ChannelID    string
	HostID       string
	Prize        string
	WinnerCount  int
	Deadline     int64
	Resolved     bool
	RequiredRole string
}

func (e Event) IsDue(now int64) bool {
	return !e.Resolved && e.Deadline <= now
}

type Entry struct {
	UserID  string
	EventID string
}

// Result is what a resolution or reroll hands to the Notifier.
type Result struct {
	Event   Event
	Entries []Entry
	Winners []Entry
}

func (r Result) WinnerIDs() []string {
	ids := make([]string, 0, len(r.Winners))
	for _, w := range r.Winners {
		ids = append(ids, w.UserID)
	}
	return ids
}

// Requester is whoever issues a management command. Privilege, when
// ChannelID is set, only extends to giveaways in that channel.
type Requester struct {
	UserID     string
	Privileged bool
	ChannelID  string
}

func (r Requester) canManage(e *Event) bool {
	if r.UserID == e.HostID {
		return true
	}
	return r.privilegedIn(e.ChannelID)
}

func (r Requester) privilegedIn(channelID string) bool {
	return r.Privileged && (r.ChannelID == "" || r.ChannelID == channelID)
}

type CreateRequest struct {
	ChannelID       string
	HostID          string
	Prize           string
	WinnerCount     int
	DurationSeconds int64
	RequiredRole    string
}
