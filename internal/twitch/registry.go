package twitch

import (
	"cmp"
	"slices"
	"sync"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

// Registry tracks which giveaways are open in each channel so chat commands
// can find them without a database round trip.
type Registry struct {
	mu   sync.RWMutex
	open map[string]map[string]giveaway.Event
}

func NewRegistry() *Registry {
	return &Registry{open: make(map[string]map[string]giveaway.Event)}
}

func (r *Registry) Opened(event giveaway.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, ok := r.open[event.ChannelID]
	if !ok {
		events = make(map[string]giveaway.Event)
		r.open[event.ChannelID] = events
	}
	events[event.ID] = event
}

func (r *Registry) Closed(event giveaway.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, ok := r.open[event.ChannelID]
	if !ok {
		return
	}
	delete(events, event.ID)
	if len(events) == 0 {
		delete(r.open, event.ChannelID)
	}
}

func (r *Registry) Lookup(channel, id string) (giveaway.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.open[channel][id]
	return event, ok
}

// Open lists the channel's open giveaways, soonest deadline first.
func (r *Registry) Open(channel string) []giveaway.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]giveaway.Event, 0, len(r.open[channel]))
	for _, event := range r.open[channel] {
		events = append(events, event)
	}
	slices.SortFunc(events, func(a, b giveaway.Event) int {
		return cmp.Or(cmp.Compare(a.Deadline, b.Deadline), cmp.Compare(a.ID, b.ID))
	})
	return events
}

// Channels lists every channel with at least one open giveaway.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]string, 0, len(r.open))
	for channel := range r.open {
		channels = append(channels, channel)
	}
	slices.Sort(channels)
	return channels
}

var _ giveaway.Observer = (*Registry)(nil)
