package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taylorsudo/rba-aud-rates/internal/alerting"
	"github.com/taylorsudo/rba-aud-rates/internal/config"
	"github.com/taylorsudo/rba-aud-rates/internal/feed"
	"github.com/taylorsudo/rba-aud-rates/internal/fetcher"
	"github.com/taylorsudo/rba-aud-rates/internal/rates"
	"github.com/taylorsudo/rba-aud-rates/internal/storage"
)

const defaultMirrorTimeout = 15 * time.Second

// Summary reports what one run persisted.
type Summary struct {
	LatestPath  string
	HistoryPath string
	Date        *string
	Currencies  int
	HistoryDays int
}

// String is the one-line report printed after a successful run.
func (s Summary) String() string {
	date := "unknown"
	if s.Date != nil {
		date = *s.Date
	}
	return fmt.Sprintf("Wrote %s and %s for date %s with %d currencies.", s.LatestPath, s.HistoryPath, date, s.Currencies)
}

// Service runs the fetch, parse, persist pipeline once.
type Service struct {
	fetcher  fetcher.FeedFetcher
	parser   *feed.Parser
	store    storage.SnapshotStore
	notifier alerting.Notifier
	logger   zerolog.Logger

	source        string
	sourceURL     string
	latestPath    string
	historyPath   string
	watch         []string
	mirrorTimeout time.Duration
}

// New constructs the pipeline. store and notifier are optional.
func New(cfg *config.Config, feedFetcher fetcher.FeedFetcher, store storage.SnapshotStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	mirrorTimeout := cfg.Database.Timeout
	if mirrorTimeout <= 0 {
		mirrorTimeout = defaultMirrorTimeout
	}

	return &Service{
		fetcher:       feedFetcher,
		parser:        feed.NewParser(logger),
		store:         store,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		source:        cfg.Feed.SourceLabel,
		sourceURL:     cfg.Feed.URL,
		latestPath:    cfg.Output.Latest,
		historyPath:   cfg.Output.History,
		watch:         cfg.Notify.Telegram.Watch,
		mirrorTimeout: mirrorTimeout,
	}
}

// Run executes the pipeline. Nothing is written unless at least one rate was
// parsed; in that case rates.ErrEmptyResult is returned.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	logger := s.logger.With().Str("run_id", uuid.NewString()).Logger()

	raw, err := s.fetcher.FetchFeed(ctx)
	if err != nil {
		return Summary{}, err
	}

	snap, err := s.parser.Parse(raw)
	if err != nil {
		return Summary{}, fmt.Errorf("parse %s: %w", s.sourceURL, err)
	}
	snap.Source = s.source
	snap.SourceURL = s.sourceURL

	if len(snap.Rates) == 0 {
		logger.Warn().Int("bytes", len(raw)).Msg("feed contained no usable rates")
		return Summary{}, rates.ErrEmptyResult
	}

	if err := storage.WriteJSON(s.latestPath, snap); err != nil {
		return Summary{}, fmt.Errorf("save latest snapshot: %w", err)
	}

	hist, err := storage.LoadHistory(s.historyPath, logger).Merge(snap)
	if err != nil {
		return Summary{}, fmt.Errorf("merge history: %w", err)
	}
	if err := storage.WriteJSON(s.historyPath, hist); err != nil {
		return Summary{}, fmt.Errorf("save history: %w", err)
	}

	logger.Info().
		Str("date", snap.DateLabel()).
		Int("currencies", len(snap.Rates)).
		Int("history_days", len(hist)).
		Msg("snapshot recorded")

	s.mirror(ctx, logger, snap)
	s.notify(ctx, logger, snap, len(hist))

	return Summary{
		LatestPath:  s.latestPath,
		HistoryPath: s.historyPath,
		Date:        snap.Date,
		Currencies:  len(snap.Rates),
		HistoryDays: len(hist),
	}, nil
}

// mirror copies the snapshot into the database. Files stay authoritative, so
// failures are only logged.
func (s *Service) mirror(ctx context.Context, logger zerolog.Logger, snap rates.Snapshot) {
	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.mirrorTimeout)
	defer cancel()

	if err := s.store.EnsureSchema(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to prepare mirror schema")
		return
	}
	if err := s.store.UpsertSnapshot(ctx, snap); err != nil {
		logger.Error().Err(err).Str("date", snap.DateLabel()).Msg("failed to mirror snapshot")
		return
	}
	logger.Debug().Str("date", snap.DateLabel()).Msg("snapshot mirrored")
}

func (s *Service) notify(ctx context.Context, logger zerolog.Logger, snap rates.Snapshot, historyDays int) {
	if s.notifier == nil {
		return
	}
	note := alerting.Notification{
		Snapshot:    snap,
		Watch:       s.watch,
		HistoryDays: historyDays,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		logger.Error().Err(err).Msg("failed to dispatch notification")
	}
}
