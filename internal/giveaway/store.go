package giveaway

import "context"

// Store persists giveaways and their entries. Lookups of a missing record
// return (nil, nil); only transport failures are errors.
type Store interface {
	Create(ctx context.Context, event *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	ListByHost(ctx context.Context, hostID string) ([]Event, error)
	ListDue(ctx context.Context, now int64) ([]Event, error)
	ListExpired(ctx context.Context, now, retention int64) ([]Event, error)

	// MarkResolved flips resolved from false to true and reports whether
	// this call made the transition.
	MarkResolved(ctx context.Context, id string) (bool, error)
	RewriteDeadline(ctx context.Context, id string, ts int64) error
	// ResolveNow is MarkResolved plus RewriteDeadline(id, now) in one
	// transaction. The deadline is only rewritten when the flip succeeds.
	ResolveNow(ctx context.Context, id string, now int64) (bool, error)

	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now, retention int64) (int64, error)

	AddEntry(ctx context.Context, userID, eventID string) error
	GetEntry(ctx context.Context, userID, eventID string) (*Entry, error)
	ListEntries(ctx context.Context, eventID string) ([]Entry, error)
	RemoveEntry(ctx context.Context, userID, eventID string) error
}

// Archiver receives expired giveaways right before the retention sweep
// deletes them.
type Archiver interface {
	Archive(ctx context.Context, events []Event, entries map[string][]Entry) error
}
