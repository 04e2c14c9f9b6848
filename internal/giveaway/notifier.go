package giveaway

import "context"

// Notifier renders giveaways on the chat platform.
type Notifier interface {
	// PostAnnouncement publishes a new giveaway and returns the identifier
	// of the announcement, which becomes the giveaway's ID.
	PostAnnouncement(ctx context.Context, event Event) (string, error)
	// CheckReference returns ErrReferenceGone when the giveaway's channel or
	// announcement vanished.
	CheckReference(ctx context.Context, event Event) error
	RenderResolution(ctx context.Context, result Result) error
	RenderReroll(ctx context.Context, result Result) error
	// DeleteAnnouncement is best-effort.
	DeleteAnnouncement(ctx context.Context, event Event) error
}
