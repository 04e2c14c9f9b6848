package cli

import (
	"github.com/spf13/cobra"

	"github.com/antlu/giveaway-assistant/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
	DBPath  string
}

// loadConfig loads settings from the environment, letting --db win over GA_DB_PATH.
func (o *RootOptions) loadConfig() config.Config {
	cfg := config.Load()
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	return cfg
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "giveaway-assistant",
		Short: "Timed giveaways for Twitch chat",
		Long: `A Twitch chat bot that runs timed giveaways.

Streamers and moderators start a giveaway with a prize, a winner count and a
duration. Viewers enter from chat, and winners are drawn when time runs out.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(opts.EnvFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to a .env file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the SQLite database (overrides GA_DB_PATH)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDBCommand(opts))

	return cmd
}
