package app

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/taylorsudo/rba-aud-rates/internal/alerting"
	"github.com/taylorsudo/rba-aud-rates/internal/config"
	"github.com/taylorsudo/rba-aud-rates/internal/fetcher"
	"github.com/taylorsudo/rba-aud-rates/internal/service"
	"github.com/taylorsudo/rba-aud-rates/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.FeedFetcher {
	return fetcher.NewFeed(fetcher.FeedOptions{
		URL:       a.Config.Feed.URL,
		Timeout:   a.Config.Feed.Timeout,
		UserAgent: a.Config.Feed.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Notify.Telegram.Enabled {
		cfg := a.Config.Notify.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Update fetches the feed once, persists the latest snapshot and history,
// and prints a one-line summary to out.
func (a *App) Update(ctx context.Context, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var snapshotStore storage.SnapshotStore
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("database mirror unavailable; continuing with files only")
	} else if store != nil {
		snapshotStore = store
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := service.New(a.Config, a.newFetcher(), snapshotStore, a.newNotifier(), a.Logger)

	started := time.Now()
	summary, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	a.Logger.Debug().Dur("elapsed", time.Since(started)).Msg("update finished")
	fmt.Fprintln(out, summary.String())
	return nil
}

// ExportOptions hold parameters for exporting one currency's history.
type ExportOptions struct {
	Code      string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Code  string
	Limit int
	Codes bool
}
