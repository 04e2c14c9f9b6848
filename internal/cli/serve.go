package cli

import (
	"context"
	"errors"
	"slices"

	"github.com/bwmarrin/snowflake"
	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/antlu/giveaway-assistant/internal/archive"
	"github.com/antlu/giveaway-assistant/internal/config"
	"github.com/antlu/giveaway-assistant/internal/giveaway"
	"github.com/antlu/giveaway-assistant/internal/logger"
	"github.com/antlu/giveaway-assistant/internal/scheduler"
	"github.com/antlu/giveaway-assistant/internal/store"
	"github.com/antlu/giveaway-assistant/internal/twitch"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Twitch chat and run giveaways",
		Long: `Connect to Twitch chat and run giveaways.

Open giveaways from a previous run are picked up again, and their channels are
joined even if they are no longer listed in GA_CHANNELS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts.loadConfig())
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return err
	}

	apiClient, err := twitch.NewApiClient(twitch.ApiOptions{
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
		UserAccessToken: cfg.UserAccessToken,
		RefreshToken:    cfg.RefreshToken,
	}, log)
	if err != nil {
		return err
	}

	ircClient := twitch.NewIRCClient(cfg.Nick, cfg.Pass, log)
	clock := giveaway.SystemClock{}
	registry := twitch.NewRegistry()
	notifier := twitch.NewNotifier(ircClient, apiClient, node, clock, log)

	opts := []giveaway.Option{giveaway.WithObserver(registry)}
	if cfg.ArchivePath != "" {
		opts = append(opts, giveaway.WithArchiver(archive.NewCSVArchiver(cfg.ArchivePath)))
		log.Infof("Old giveaways will be archived to %s", cfg.ArchivePath)
	}
	engine := giveaway.NewEngine(st, notifier, clock, log, opts...)

	if _, err := engine.Reconcile(ctx, registry.Opened); err != nil {
		return err
	}

	router := twitch.NewRouter(engine, registry, ircClient, clock, log)
	ircClient.OnPrivateMessage(func(message twitchirc.PrivateMessage) {
		go router.HandleMessage(ctx, message)
	})
	ircClient.Join(channelsToJoin(cfg.Channels, registry.Channels())...)

	jobs := scheduler.NewManager(log)
	jobs.Register(scheduler.NewDueScanJob(engine, clock, cfg.ScanInterval))
	jobs.Register(scheduler.NewRetentionSweepJob(engine, clock, log, cfg.SweepInterval, cfg.RetentionSeconds()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(ircClient.Run)
	g.Go(func() error {
		if err := jobs.Start(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := ircClient.Disconnect(); err != nil {
			log.Warnf("Error disconnecting from Twitch: %v", err)
		}
		return nil
	})

	return g.Wait()
}

func channelsToJoin(configured, withOpenGiveaways []string) []string {
	channels := slices.Clone(configured)
	for _, channel := range withOpenGiveaways {
		if !slices.Contains(channels, channel) {
			channels = append(channels, channel)
		}
	}
	return channels
}
