package twitch

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antlu/giveaway-assistant/internal/errorx"
	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

const (
	giveawayPrefix = "!giveaway"
	enterCommand   = "!enter"
	leaveCommand   = "!leave"

	startUsage = "Usage: !giveaway start <duration> [winners] [role=<badge>] <prize>"
)

type command struct {
	name string
	args []string
}

func parseCommand(text string) (command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return command{}, false
	}

	switch strings.ToLower(fields[0]) {
	case enterCommand:
		return command{name: "enter", args: fields[1:]}, true
	case leaveCommand:
		return command{name: "leave", args: fields[1:]}, true
	case giveawayPrefix:
		if len(fields) == 1 {
			return command{name: "help"}, true
		}
		return command{name: strings.ToLower(fields[1]), args: fields[2:]}, true
	}

	return command{}, false
}

var daysPrefix = regexp.MustCompile(`^(\d+)d(.*)$`)

// parseDuration accepts Go durations plus a leading day count ("1d12h").
// A bare number means minutes. Anything past the giveaway maximum is rejected
// before it can overflow.
func parseDuration(raw string) (int64, error) {
	invalid := errorx.New(errorx.InvalidDuration, "Please, inform the time, e.g. 30m, 2h or 1d")
	tooLong := errorx.New(errorx.InvalidDuration, "A giveaway can last at most %d days", giveaway.MaxDurationSeconds/86400)

	if minutes, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if minutes > giveaway.MaxDurationSeconds/60 {
			return 0, tooLong
		}
		return minutes * 60, nil
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, tooLong
	}

	var days int64
	if m := daysPrefix.FindStringSubmatch(raw); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > giveaway.MaxDurationSeconds/86400 {
			return 0, tooLong
		}
		days, raw = n, m[2]
	}

	var rest int64
	if raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, invalid
		}
		rest = int64(d / time.Second)
	}

	total := days*86400 + rest
	if total > giveaway.MaxDurationSeconds {
		return 0, tooLong
	}
	return total, nil
}

// parseStart reads the arguments of "!giveaway start". Channel and host are
// filled in by the caller.
func parseStart(args []string) (giveaway.CreateRequest, error) {
	var req giveaway.CreateRequest
	if len(args) < 2 {
		return req, errorx.New(errorx.InvalidArgument, startUsage)
	}

	duration, err := parseDuration(args[0])
	if err != nil {
		return req, err
	}
	req.DurationSeconds = duration

	rest := args[1:]
	if len(rest) > 1 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			req.WinnerCount = n
			if n == 0 {
				return req, errorx.New(errorx.InvalidArgument, "The number of winners must be a positive number")
			}
			rest = rest[1:]
		}
	}
	if len(rest) > 1 && strings.HasPrefix(rest[0], "role=") {
		req.RequiredRole = strings.ToLower(strings.TrimPrefix(rest[0], "role="))
		rest = rest[1:]
	}

	req.Prize = strings.Join(rest, " ")
	return req, nil
}
