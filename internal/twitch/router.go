package twitch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gempir/go-twitch-irc/v4"

	"github.com/antlu/giveaway-assistant/internal/errorx"
	"github.com/antlu/giveaway-assistant/internal/giveaway"
	"github.com/antlu/giveaway-assistant/internal/logger"
)

const (
	// confirmTimeout is how long, in seconds, an end or delete waits for
	// "!giveaway confirm".
	confirmTimeout int64 = 60

	maxMessageLength = 450
)

type pendingAction struct {
	action  string
	eventID string
	expires int64
}

// Router turns chat messages into giveaway engine calls.
type Router struct {
	engine   *giveaway.Engine
	registry *Registry
	say      Sayer
	clock    giveaway.Clock
	log      logger.Logger

	mu      sync.Mutex
	pending map[string]pendingAction
}

func NewRouter(engine *giveaway.Engine, registry *Registry, say Sayer, clock giveaway.Clock, log logger.Logger) *Router {
	return &Router{
		engine:   engine,
		registry: registry,
		say:      say,
		clock:    clock,
		log:      log,
		pending:  make(map[string]pendingAction),
	}
}

func (r *Router) HandleMessage(ctx context.Context, message twitch.PrivateMessage) {
	cmd, ok := parseCommand(message.Message)
	if !ok {
		return
	}

	var err error
	switch cmd.name {
	case "enter":
		err = r.enter(ctx, message, cmd.args)
	case "leave":
		err = r.leave(ctx, message, cmd.args)
	case "start":
		err = r.start(ctx, message, cmd.args)
	case "list":
		err = r.list(ctx, message)
	case "reroll":
		err = r.reroll(ctx, message, cmd.args)
	case "end", "delete":
		err = r.ask(ctx, message, cmd.name, cmd.args)
	case "confirm":
		err = r.confirm(ctx, message)
	default:
		r.reply(message, "Commands: start, list, reroll <id>, end <id>, delete <id>, confirm. Viewers type !enter")
	}

	if err != nil {
		r.replyError(message, err)
	}
}

func (r *Router) enter(ctx context.Context, message twitch.PrivateMessage, args []string) error {
	event, err := r.target(message.Channel, args)
	if err != nil {
		return err
	}

	if role := event.RequiredRole; role != "" && !hasBadge(message.User, role) {
		return errorx.New(errorx.Forbidden, "Giveaway %s is only for %s", event.ID, role)
	}

	if err := r.engine.Enter(ctx, event.ID, message.User.ID); err != nil {
		return err
	}

	r.log.Infof("%s entered giveaway %s", message.User.Name, event.ID)
	return nil
}

func (r *Router) leave(ctx context.Context, message twitch.PrivateMessage, args []string) error {
	event, err := r.target(message.Channel, args)
	if err != nil {
		return err
	}

	if err := r.engine.Leave(ctx, event.ID, message.User.ID); err != nil {
		return err
	}

	r.log.Infof("%s left giveaway %s", message.User.Name, event.ID)
	return nil
}

// target picks the open giveaway a viewer means: the named one, or the only
// one running in the channel.
func (r *Router) target(channel string, args []string) (giveaway.Event, error) {
	if len(args) > 0 {
		event, ok := r.registry.Lookup(channel, args[0])
		if !ok {
			return giveaway.Event{}, errorx.New(errorx.NotFound, "There is no open giveaway %s", args[0])
		}
		return event, nil
	}

	open := r.registry.Open(channel)
	switch len(open) {
	case 0:
		return giveaway.Event{}, errorx.New(errorx.NotFound, "There is no giveaway running")
	case 1:
		return open[0], nil
	}

	ids := make([]string, 0, len(open))
	for _, event := range open {
		ids = append(ids, event.ID)
	}
	return giveaway.Event{}, errorx.New(errorx.InvalidArgument,
		"Several giveaways are running, add the id: %s", strings.Join(ids, ", "))
}

func (r *Router) start(ctx context.Context, message twitch.PrivateMessage, args []string) error {
	if !isPrivileged(message) && !hasBadge(message.User, "vip") {
		return errorx.New(errorx.Forbidden, "Only the streamer, moderators and VIPs can start giveaways")
	}

	req, err := parseStart(args)
	if err != nil {
		return err
	}
	req.ChannelID = message.Channel
	req.HostID = message.User.ID

	_, err = r.engine.Start(ctx, req)
	return err
}

func (r *Router) list(ctx context.Context, message twitch.PrivateMessage) error {
	events, err := r.engine.ListForUser(ctx, requester(message))
	if err != nil {
		return err
	}

	now := r.clock.Now()
	var b strings.Builder
	shown := 0
	for _, event := range events {
		if event.ChannelID != message.Channel {
			continue
		}

		state := "ended"
		if !event.Resolved {
			state = "ends in " + formatRemaining(event.Deadline-now)
		}
		line := fmt.Sprintf("%s %s (%s, %s)", event.ID, event.Prize, plural(event.WinnerCount, "winner"), state)

		if b.Len()+len(line) > maxMessageLength {
			b.WriteString(" | ...")
			break
		}
		if shown > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(line)
		shown++
	}

	if shown == 0 {
		r.reply(message, "You have no giveaways here")
		return nil
	}
	r.reply(message, b.String())
	return nil
}

func (r *Router) reroll(ctx context.Context, message twitch.PrivateMessage, args []string) error {
	if len(args) == 0 {
		return errorx.New(errorx.InvalidArgument, "Usage: !giveaway reroll <id>")
	}

	_, err := r.engine.Reroll(ctx, args[0], requester(message))
	return err
}

// ask parks an end or delete until the same user confirms it. Requests that
// would fail anyway are refused up front.
func (r *Router) ask(ctx context.Context, message twitch.PrivateMessage, action string, args []string) error {
	if len(args) == 0 {
		return errorx.New(errorx.InvalidArgument, "Usage: !giveaway %s <id>", action)
	}

	who := requester(message)
	var err error
	if action == "end" {
		err = r.engine.CheckForceEnd(ctx, args[0], who)
	} else {
		err = r.engine.CheckDelete(ctx, args[0], who)
	}
	if err != nil {
		return err
	}

	now := r.clock.Now()

	r.mu.Lock()
	for key, p := range r.pending {
		if p.expires <= now {
			delete(r.pending, key)
		}
	}
	r.pending[pendingKey(message)] = pendingAction{action: action, eventID: args[0], expires: now + confirmTimeout}
	r.mu.Unlock()

	r.reply(message, fmt.Sprintf("Are you sure you want to %s giveaway %s? Type !giveaway confirm within %ds",
		action, args[0], confirmTimeout))
	return nil
}

func (r *Router) confirm(ctx context.Context, message twitch.PrivateMessage) error {
	key := pendingKey(message)

	r.mu.Lock()
	p, ok := r.pending[key]
	delete(r.pending, key)
	r.mu.Unlock()

	if !ok {
		r.reply(message, "There is nothing to confirm")
		return nil
	}
	if p.expires <= r.clock.Now() {
		r.reply(message, "Time is up, nothing was done")
		return nil
	}

	who := requester(message)
	switch p.action {
	case "delete":
		return r.engine.Delete(ctx, p.eventID, who)
	case "end":
		result, err := r.engine.ForceEnd(ctx, p.eventID, who)
		if err != nil {
			return err
		}
		if result == nil {
			r.reply(message, fmt.Sprintf("Giveaway %s could not be ended and was removed", p.eventID))
		}
	}
	return nil
}

func (r *Router) reply(message twitch.PrivateMessage, text string) {
	r.say.Say(message.Channel, fmt.Sprintf("@%s, %s", displayName(message.User), text))
}

func (r *Router) replyError(message twitch.PrivateMessage, err error) {
	var xerr errorx.Error
	if errors.As(err, &xerr) && xerr.Code != errorx.StoreUnavailable {
		r.reply(message, xerr.Message)
		return
	}

	r.log.Errorf("Cannot handle %q from %s in %s: %v", message.Message, message.User.Name, message.Channel, err)
	r.reply(message, "Something went wrong, try again later")
}

func requester(message twitch.PrivateMessage) giveaway.Requester {
	return giveaway.Requester{
		UserID:     message.User.ID,
		Privileged: isPrivileged(message),
		ChannelID:  message.Channel,
	}
}

func isPrivileged(message twitch.PrivateMessage) bool {
	return hasBadge(message.User, "broadcaster") || hasBadge(message.User, "moderator") ||
		strings.EqualFold(message.User.Name, message.Channel)
}

func hasBadge(user twitch.User, badge string) bool {
	_, ok := user.Badges[badge]
	return ok
}

func displayName(user twitch.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Name
}

func pendingKey(message twitch.PrivateMessage) string {
	return message.Channel + "/" + message.User.ID
}
