package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/antlu/giveaway-assistant/internal/store"
)

func NewDBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the giveaway tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create the giveaway tables if they don't exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(ctx context.Context, s *store.Store) (string, error) {
				exists, err := s.TablesExist(ctx)
				if err != nil {
					return "", err
				}
				if exists {
					return "Tables already exist", nil
				}
				return "Tables created", s.Migrate(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "drop",
		Short: "Drop the giveaway tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(ctx context.Context, s *store.Store) (string, error) {
				return "Tables dropped", s.DropTables(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete every giveaway and entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(ctx context.Context, s *store.Store) (string, error) {
				exists, err := s.TablesExist(ctx)
				if err != nil {
					return "", err
				}
				if !exists {
					return "", fmt.Errorf("tables don't exist, run \"db create\" first")
				}
				return "Tables reset", s.ResetTables(ctx)
			})
		},
	})

	return cmd
}

func withStore(cmd *cobra.Command, rootOpts *RootOptions, fn func(context.Context, *store.Store) (string, error)) error {
	cfg := rootOpts.loadConfig()

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	msg, err := fn(cmd.Context(), s)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
