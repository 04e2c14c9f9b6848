package giveaway

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/antlu/giveaway-assistant/internal/errorx"
	"github.com/antlu/giveaway-assistant/internal/logger"
)

// Observer is told when a giveaway starts or stops accepting entries.
type Observer interface {
	Opened(event Event)
	Closed(event Event)
}

type Option func(*Engine)

func WithSelector(s Selector) Option {
	return func(e *Engine) { e.selector = s }
}

func WithArchiver(a Archiver) Option {
	return func(e *Engine) { e.archiver = a }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine drives the giveaway lifecycle: open, resolved, deleted.
type Engine struct {
	store    Store
	notifier Notifier
	selector Selector
	archiver Archiver
	observer Observer
	clock    Clock
	log      logger.Logger
}

func NewEngine(store Store, notifier Notifier, clock Clock, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		notifier: notifier,
		selector: ShuffleSelector{},
		clock:    clock,
		log:      log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start announces a giveaway and then persists it under the announcement's
// identifier. If persisting fails the announcement is retracted.
func (e *Engine) Start(ctx context.Context, req CreateRequest) (*Event, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	draft := newEvent("", req, e.clock.Now())
	id, err := e.notifier.PostAnnouncement(ctx, draft)
	if err != nil {
		e.log.Errorf("Cannot post announcement in channel %s: %v", req.ChannelID, err)
		return nil, err
	}
	draft.ID = id

	if err := e.persist(ctx, &draft); err != nil {
		if derr := e.notifier.DeleteAnnouncement(ctx, draft); derr != nil {
			e.log.Warnf("Cannot retract announcement %s: %v", id, derr)
		}
		return nil, err
	}

	return &draft, nil
}

// Create persists a giveaway whose announcement already exists under id.
func (e *Engine) Create(ctx context.Context, id string, req CreateRequest) (*Event, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errorx.New(errorx.InvalidArgument, "Giveaway id is required")
	}

	event := newEvent(id, req, e.clock.Now())
	if err := e.persist(ctx, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (e *Engine) persist(ctx context.Context, event *Event) error {
	if err := e.store.Create(ctx, event); err != nil {
		e.log.Errorf("Cannot create giveaway %s: %v", event.ID, err)
		return err
	}

	e.log.Infof("Giveaway %s started in %s by %s, ends at %d", event.ID, event.ChannelID, event.HostID, event.Deadline)
	if e.observer != nil {
		e.observer.Opened(*event)
	}
	return nil
}

func (e *Engine) Enter(ctx context.Context, eventID, userID string) error {
	event, err := e.mustGet(ctx, eventID)
	if err != nil {
		return err
	}

	if event.Resolved {
		return errorx.New(errorx.AlreadyResolved, "Giveaway %s has ended", eventID)
	}

	return e.store.AddEntry(ctx, userID, eventID)
}

func (e *Engine) Leave(ctx context.Context, eventID, userID string) error {
	if _, err := e.mustGet(ctx, eventID); err != nil {
		return err
	}

	entry, err := e.store.GetEntry(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if entry == nil {
		return errorx.New(errorx.NotFound, "User %s has not entered giveaway %s", userID, eventID)
	}

	return e.store.RemoveEntry(ctx, userID, eventID)
}

// DueScan resolves every open giveaway whose deadline is at or before now.
// A failure on one giveaway never stops the others.
func (e *Engine) DueScan(ctx context.Context, now int64) []Result {
	events, err := e.store.ListDue(ctx, now)
	if err != nil {
		e.log.Errorf("Cannot list due giveaways: %v", err)
		return nil
	}

	results := []Result{}
	for _, event := range events {
		result, err := e.resolve(ctx, event, nil)
		if err != nil {
			if errors.Is(err, errorx.ErrAlreadyResolved) {
				e.log.Debugf("Giveaway %s was resolved concurrently", event.ID)
				continue
			}

			e.log.Errorf("Cannot resolve giveaway %s: %v", event.ID, err)
			continue
		}

		if result != nil {
			results = append(results, *result)
		}
	}

	return results
}

// RetentionSweep removes resolved giveaways whose deadline is at least
// retention seconds old. With an archiver configured, expired giveaways are
// archived first and kept if archiving fails.
func (e *Engine) RetentionSweep(ctx context.Context, now, retention int64) (int64, error) {
	if e.archiver == nil {
		deleted, err := e.store.DeleteExpired(ctx, now, retention)
		if err != nil {
			return 0, err
		}
		if deleted > 0 {
			e.log.Infof("Deleted %d old giveaways", deleted)
		}
		return deleted, nil
	}

	expired, err := e.store.ListExpired(ctx, now, retention)
	if err != nil || len(expired) == 0 {
		return 0, err
	}

	entries := make(map[string][]Entry, len(expired))
	for _, event := range expired {
		list, err := e.store.ListEntries(ctx, event.ID)
		if err != nil {
			return 0, err
		}
		entries[event.ID] = list
	}

	if err := e.archiver.Archive(ctx, expired, entries); err != nil {
		return 0, err
	}

	var deleted int64
	for _, event := range expired {
		if err := e.store.Delete(ctx, event.ID); err != nil {
			e.log.Errorf("Cannot delete archived giveaway %s: %v", event.ID, err)
			continue
		}
		deleted++
	}

	e.log.Infof("Archived and deleted %d old giveaways", deleted)
	return deleted, nil
}

// Reroll draws a fresh set of winners for a resolved giveaway. Nothing is
// persisted.
func (e *Engine) Reroll(ctx context.Context, eventID string, who Requester) (*Result, error) {
	event, err := e.mustGet(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !who.canManage(event) {
		return nil, errorx.New(errorx.Forbidden, "You cannot reroll someone else's giveaway")
	}

	if !event.Resolved {
		return nil, errorx.New(errorx.NotResolvedYet, "Giveaway %s hasn't ended yet", eventID)
	}

	entries, err := e.store.ListEntries(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := Result{
		Event:   *event,
		Entries: entries,
		Winners: e.selector.SelectWinners(entries, event.WinnerCount),
	}

	if err := e.notifier.RenderReroll(ctx, result); err != nil {
		e.log.Errorf("Cannot render reroll of giveaway %s: %v", eventID, err)
	}

	return &result, nil
}

// ForceEnd resolves an open giveaway ahead of schedule and moves its deadline
// to now. A nil result with a nil error means the giveaway's channel is gone
// and the record was dropped.
func (e *Engine) ForceEnd(ctx context.Context, eventID string, who Requester) (*Result, error) {
	event, err := e.endable(ctx, eventID, who)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	return e.resolve(ctx, *event, &now)
}

// Delete removes a giveaway and its entries. The announcement is retracted
// best-effort afterwards.
func (e *Engine) Delete(ctx context.Context, eventID string, who Requester) error {
	event, err := e.deletable(ctx, eventID, who)
	if err != nil {
		return err
	}

	if err := e.store.Delete(ctx, eventID); err != nil {
		return err
	}

	e.log.Infof("Giveaway %s deleted by %s", eventID, who.UserID)
	if e.observer != nil {
		e.observer.Closed(*event)
	}

	if err := e.notifier.DeleteAnnouncement(ctx, *event); err != nil {
		e.log.Warnf("Cannot delete announcement of giveaway %s: %v", eventID, err)
	}

	return nil
}

// CheckForceEnd returns the error ForceEnd would fail with right now, without
// changing anything.
func (e *Engine) CheckForceEnd(ctx context.Context, eventID string, who Requester) error {
	_, err := e.endable(ctx, eventID, who)
	return err
}

// CheckDelete returns the error Delete would fail with right now, without
// changing anything.
func (e *Engine) CheckDelete(ctx context.Context, eventID string, who Requester) error {
	_, err := e.deletable(ctx, eventID, who)
	return err
}

func (e *Engine) endable(ctx context.Context, eventID string, who Requester) (*Event, error) {
	event, err := e.mustGet(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !who.canManage(event) {
		return nil, errorx.New(errorx.Forbidden, "You cannot end someone else's giveaway")
	}

	if event.Resolved {
		return nil, errorx.New(errorx.AlreadyResolved, "Giveaway %s has been ended already", eventID)
	}

	return event, nil
}

func (e *Engine) deletable(ctx context.Context, eventID string, who Requester) (*Event, error) {
	event, err := e.mustGet(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !who.canManage(event) {
		return nil, errorx.New(errorx.Forbidden, "You cannot delete someone else's giveaway")
	}

	return event, nil
}

// ListForUser returns every giveaway a privileged requester may manage, or
// only the requester's own giveaways otherwise.
func (e *Engine) ListForUser(ctx context.Context, who Requester) ([]Event, error) {
	if !who.Privileged {
		return e.store.ListByHost(ctx, who.UserID)
	}

	events, err := e.store.ListAll(ctx)
	if err != nil || who.ChannelID == "" {
		return events, err
	}

	visible := []Event{}
	for _, event := range events {
		if event.HostID == who.UserID || event.ChannelID == who.ChannelID {
			visible = append(visible, event)
		}
	}
	return visible, nil
}

// Reconcile calls fn for every open giveaway. It runs once at startup so the
// chat surface can accept entries for giveaways created before a restart.
func (e *Engine) Reconcile(ctx context.Context, fn func(Event)) (int, error) {
	events, err := e.store.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, event := range events {
		if event.Resolved {
			continue
		}
		fn(event)
		n++
	}

	e.log.Infof("Reconciled %d open giveaways", n)
	return n, nil
}

// resolve draws winners and flips the giveaway to resolved. The resolution
// is rendered only once the flip is persisted, so a lost race or a failed
// write never announces winners. endedAt, when set, becomes the new deadline.
func (e *Engine) resolve(ctx context.Context, event Event, endedAt *int64) (*Result, error) {
	if err := e.notifier.CheckReference(ctx, event); err != nil {
		if !errors.Is(err, ErrReferenceGone) {
			// Only a definite answer drops the giveaway. Anything else must not
			// keep it open forever.
			e.log.Errorf("Cannot verify channel of giveaway %s, resolving it anyway: %v", event.ID, err)
			return e.draw(ctx, event, endedAt)
		}

		e.log.Warnf("Giveaway %s lost its channel or message, dropping it", event.ID)
		if err := e.store.Delete(ctx, event.ID); err != nil {
			return nil, err
		}
		if e.observer != nil {
			e.observer.Closed(event)
		}
		return nil, nil
	}

	return e.draw(ctx, event, endedAt)
}

func (e *Engine) draw(ctx context.Context, event Event, endedAt *int64) (*Result, error) {
	entries, err := e.store.ListEntries(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	winners := e.selector.SelectWinners(entries, event.WinnerCount)

	var flipped bool
	if endedAt != nil {
		flipped, err = e.store.ResolveNow(ctx, event.ID, *endedAt)
	} else {
		flipped, err = e.store.MarkResolved(ctx, event.ID)
	}
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, errorx.New(errorx.AlreadyResolved, "Giveaway %s has been ended already", event.ID)
	}

	event.Resolved = true
	if endedAt != nil {
		event.Deadline = *endedAt
	}

	result := Result{Event: event, Entries: entries, Winners: winners}
	if err := e.notifier.RenderResolution(ctx, result); err != nil {
		e.log.Errorf("Cannot render resolution of giveaway %s: %v", event.ID, err)
	}
	if e.observer != nil {
		e.observer.Closed(event)
	}

	e.log.Infof("Resolved giveaway %s with %d entries and %d winners", event.ID, len(entries), len(winners))
	return &result, nil
}

func (e *Engine) mustGet(ctx context.Context, eventID string) (*Event, error) {
	event, err := e.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errorx.New(errorx.NotFound, "The specified giveaway doesn't exist")
	}
	return event, nil
}

func normalize(req CreateRequest) (CreateRequest, error) {
	if req.DurationSeconds <= 0 {
		return req, errorx.New(errorx.InvalidDuration, "Please, inform the time")
	}
	if req.DurationSeconds > MaxDurationSeconds {
		return req, errorx.New(errorx.InvalidDuration, "A giveaway can last at most %d days", MaxDurationSeconds/86400)
	}

	if req.WinnerCount == 0 {
		req.WinnerCount = DefaultWinnerCount
	}
	if req.WinnerCount < 0 {
		return req, errorx.New(errorx.InvalidArgument, "The number of winners must be a positive number")
	}

	req.Prize = strings.TrimSpace(req.Prize)
	if req.Prize == "" {
		return req, errorx.New(errorx.InvalidArgument, "Please, inform the prize")
	}
	if utf8.RuneCountInString(req.Prize) > MaxPrizeLength {
		return req, errorx.New(errorx.InvalidArgument, "The prize must be at most %d characters", MaxPrizeLength)
	}

	return req, nil
}

func newEvent(id string, req CreateRequest, now int64) Event {
	return Event{
		ID:           id,
		ChannelID:    req.ChannelID,
		HostID:       req.HostID,
		Prize:        req.Prize,
		WinnerCount:  req.WinnerCount,
		Deadline:     now + req.DurationSeconds,
		RequiredRole: req.RequiredRole,
	}
}
