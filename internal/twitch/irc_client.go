package twitch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gempir/go-twitch-irc/v4"

	"github.com/antlu/giveaway-assistant/internal/logger"
)

type IRCClient struct {
	*twitch.Client
	log logger.Logger
}

func NewIRCClient(nick, pass string, log logger.Logger) *IRCClient {
	if !strings.HasPrefix(pass, "oauth:") {
		pass = fmt.Sprintf("oauth:%s", pass)
	}

	client := twitch.NewClient(nick, pass)
	c := &IRCClient{Client: client, log: log}

	client.OnConnect(func() {
		log.Infof("Connected to Twitch chat as %s", nick)
	})
	client.OnSelfJoinMessage(func(message twitch.UserJoinMessage) {
		log.Infof("Joined %s", message.Channel)
	})
	client.OnReconnectMessage(func(twitch.ReconnectMessage) {
		log.Warnf("Twitch asked to reconnect")
	})

	return c
}

// Run connects and blocks until the connection is closed. A deliberate
// Disconnect is not an error.
func (c *IRCClient) Run() error {
	err := c.Connect()
	if errors.Is(err, twitch.ErrClientDisconnected) {
		return nil
	}
	return err
}
