package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"fetcharr/internal/config"
	"fetcharr/internal/logging"
	"fetcharr/internal/notify"
	"fetcharr/internal/requests"
	"fetcharr/internal/server"
	"fetcharr/internal/services/radarr"
	"fetcharr/internal/services/sonarr"
	"fetcharr/internal/tracker"
)

func newRunCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the request tracker daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(*configFlag)
		},
	}
}

func runDaemon(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("fetcharrd starting",
		logging.String("config", resolvedPath),
		logging.String("deployment", cfg.Deployment),
	)

	// One daemon per data directory; a second instance would race the
	// poller against itself.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another fetcharrd instance holds %s", cfg.LockPath())
	}
	defer lock.Unlock() //nolint:errcheck

	store, err := requests.Open(cfg)
	if err != nil {
		return fmt.Errorf("open request store: %w", err)
	}
	defer store.Close()
	logRecovered(ctx, store, logger)

	movies := radarr.New(cfg.Radarr.URL, cfg.Radarr.APIKey, cfg.Radarr.Timeout())
	shows := sonarr.New(cfg.Sonarr.URL, cfg.Sonarr.APIKey, cfg.Sonarr.Timeout())
	notifier := notify.NewService(cfg)

	engine := tracker.NewEngine(cfg, store, movies, shows, notifier, logger)
	poller := tracker.NewPoller(cfg, store, movies, shows, notifier, logger)
	go poller.Run(ctx) //nolint:errcheck

	api := server.New(cfg, engine, store, logger)
	if err := api.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	logger.Info("fetcharrd shut down")
	return nil
}

// logRecovered reports the records picked back up after a restart so
// operators can see what the poller will resume tracking.
func logRecovered(ctx context.Context, store *requests.Store, logger *slog.Logger) {
	stats, err := store.Stats(ctx)
	if err != nil {
		logger.Warn("read store stats", logging.Error(err))
		return
	}
	total := 0
	for _, count := range stats {
		total += count
	}
	logger.Info("recovered tracked requests",
		logging.Int("total", total),
		logging.Int("pending_user", stats[requests.StatePendingUser]),
		logging.Int("downloading", stats[requests.StateDownloading]),
	)
}
