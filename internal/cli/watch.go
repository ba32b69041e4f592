package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leaderboard-watch/internal/app"
	"leaderboard-watch/internal/config"
	"leaderboard-watch/internal/domain"
	pgarchive "leaderboard-watch/internal/infra/postgres"
	"leaderboard-watch/internal/transport/socket"
	"leaderboard-watch/internal/view"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewWatchCmd builds the CLI subcommand that runs the live view.
func NewWatchCmd(configPath, apiURL, socketURL *string) *cobra.Command {
	var quizID, groupID string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the live leaderboard (recent feed, or one quiz/group)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if quizID != "" && groupID != "" {
				return fmt.Errorf("--quiz and --group are mutually exclusive")
			}
			return runWatch(cmd.Context(), *configPath, *apiURL, *socketURL, quizID, groupID)
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "watch one quiz's leaderboard")
	cmd.Flags().StringVar(&groupID, "group", "", "watch one group's leaderboard")
	return cmd
}

func runWatch(ctx context.Context, configPath, apiFlag, socketFlag, quizID, groupID string) error {
	cfg, err := loadConfig(configPath, apiFlag, socketFlag)
	if err != nil {
		return err
	}

	api := newAPIClient(cfg)
	catalog := newCatalog(cfg, api)

	manager := socket.NewManager(socket.Options{
		URL:               cfg.Socket.URL,
		ReconnectAttempts: cfg.Socket.ReconnectAttempts,
		ReconnectDelay:    config.TTLDuration(cfg.Socket.ReconnectDelay, 2*time.Second),
	})

	opts := []app.Option{
		app.WithRecentLimit(cfg.Watch.RecentLimit),
		app.WithRoomJoiner(manager),
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		opts = append(opts, app.WithSink(pgarchive.NewArchive(pool)))
	}

	watcher := app.NewWatcher(api, opts...)

	// Initial snapshots: the recent feed and the catalog in parallel.
	var quizCount, groupCount int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		watcher.LoadRecent(gctx)
		return nil
	})
	g.Go(func() error {
		quizzes, err := catalog.Quizzes(gctx)
		if err != nil {
			log.Printf("watch: load quiz catalog: %v", err)
			return nil
		}
		quizCount = len(quizzes)
		return nil
	})
	g.Go(func() error {
		groups, err := catalog.Groups(gctx)
		if err != nil {
			log.Printf("watch: load group catalog: %v", err)
			return nil
		}
		groupCount = len(groups)
		return nil
	})
	_ = g.Wait()

	if cfg.Socket.URL != "" {
		identity := domain.Identity{UserID: cfg.Watch.UserID, Role: cfg.Watch.Role}
		if err := manager.Connect(ctx, identity); err != nil {
			// push delivery degrades to REST-only; reconnects may still land
			log.Printf("watch: connect push channel: %v", err)
		}
		defer manager.Disconnect()

		unsubSubmission := manager.Subscribe(domain.EventSubmissionNotification, func(raw json.RawMessage) {
			watcher.HandleSubmission(context.Background(), raw)
		})
		defer unsubSubmission()
		unsubUpdate := manager.Subscribe(domain.EventLeaderboardUpdate, func(raw json.RawMessage) {
			watcher.HandleLeaderboardUpdate(context.Background(), raw)
		})
		defer unsubUpdate()
	}

	switch {
	case quizID != "":
		if err := watcher.LoadQuizLeaderboard(ctx, quizID); err != nil {
			log.Printf("watch: %v", err)
		}
	case groupID != "":
		if err := watcher.LoadGroupLeaderboard(ctx, groupID); err != nil {
			log.Printf("watch: %v", err)
		}
	}

	updates, cancel := watcher.Subscribe()
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case snap := <-updates:
			fmt.Print("\033[2J\033[H") // clear screen, cursor home
			fmt.Print(view.Render(snap))
			fmt.Printf("\n%s | %d published quizzes | %d groups | updated %s\n",
				manager.State(), quizCount, groupCount, snap.UpdatedAt.Format("15:04:05"))
		case <-stop:
			log.Println("shutting down watcher...")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
