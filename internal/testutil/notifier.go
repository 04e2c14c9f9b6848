package testutil

import (
	"context"
	"strconv"
	"sync"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

// RecordingNotifier is an in-memory giveaway.Notifier that remembers every
// call. Announcement IDs are sequential starting at 1.
type RecordingNotifier struct {
	mu sync.Mutex

	nextID      int
	Posted      []giveaway.Event
	Resolutions []giveaway.Result
	Rerolls     []giveaway.Result
	Deleted     []giveaway.Event

	// GoneChannels makes CheckReference report ErrReferenceGone.
	GoneChannels map[string]bool

	PostErr    error
	CheckErr   error
	ResolveErr error
	DeleteErr  error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{GoneChannels: make(map[string]bool)}
}

func (n *RecordingNotifier) PostAnnouncement(_ context.Context, event giveaway.Event) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.PostErr != nil {
		return "", n.PostErr
	}
	n.nextID++
	n.Posted = append(n.Posted, event)
	return strconv.Itoa(n.nextID), nil
}

func (n *RecordingNotifier) CheckReference(_ context.Context, event giveaway.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.GoneChannels[event.ChannelID] {
		return giveaway.ErrReferenceGone
	}
	return n.CheckErr
}

func (n *RecordingNotifier) RenderResolution(_ context.Context, result giveaway.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Resolutions = append(n.Resolutions, result)
	return n.ResolveErr
}

func (n *RecordingNotifier) RenderReroll(_ context.Context, result giveaway.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Rerolls = append(n.Rerolls, result)
	return nil
}

func (n *RecordingNotifier) DeleteAnnouncement(_ context.Context, event giveaway.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Deleted = append(n.Deleted, event)
	return n.DeleteErr
}

func (n *RecordingNotifier) ResolutionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Resolutions)
}
