package cli

import (
	"context"
	"fmt"
	"time"

	"leaderboard-watch/internal/config"
	pgarchive "leaderboard-watch/internal/infra/postgres"
	"leaderboard-watch/internal/view"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewHistoryCmd lists archived submissions from Postgres.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), *configPath, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of submissions to show")
	return cmd
}

func runHistory(ctx context.Context, configPath string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	entries, err := pgarchive.NewArchive(pool).Recent(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Print(view.RenderRecent(entries, time.Now()))
	return nil
}
