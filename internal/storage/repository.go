package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taylorsudo/rba-aud-rates/internal/rates"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSnapshotsSQL = `CREATE TABLE IF NOT EXISTS rate_snapshots (
        observation_date TEXT PRIMARY KEY,
        as_at_aest       TEXT,
        source           TEXT NOT NULL,
        source_url       TEXT NOT NULL,
        base             TEXT NOT NULL,
        currency_count   INTEGER NOT NULL,
        updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	createObservationsSQL = `CREATE TABLE IF NOT EXISTS rate_observations (
        observation_date TEXT NOT NULL REFERENCES rate_snapshots (observation_date) ON DELETE CASCADE,
        code             TEXT NOT NULL,
        per_aud          DOUBLE PRECISION NOT NULL,
        aud_per_unit     DOUBLE PRECISION,
        decimals         INTEGER,
        title            TEXT NOT NULL DEFAULT '',
        PRIMARY KEY (observation_date, code)
    );`

	upsertSnapshotSQL = `INSERT INTO rate_snapshots (
        observation_date,
        as_at_aest,
        source,
        source_url,
        base,
        currency_count
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (observation_date) DO UPDATE
    SET
        as_at_aest     = EXCLUDED.as_at_aest,
        source         = EXCLUDED.source,
        source_url     = EXCLUDED.source_url,
        base           = EXCLUDED.base,
        currency_count = EXCLUDED.currency_count,
        updated_at     = now();`

	deleteObservationsSQL = `DELETE FROM rate_observations WHERE observation_date = $1;`
)

var observationColumns = []string{"observation_date", "code", "per_aud", "aud_per_unit", "decimals", "title"}

// SnapshotStore mirrors persisted snapshots into a relational database.
type SnapshotStore interface {
	EnsureSchema(ctx context.Context) error
	UpsertSnapshot(ctx context.Context, snap rates.Snapshot) error
}

// Store is the PostgreSQL-backed SnapshotStore.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the mirror tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	for _, stmt := range []string{createSnapshotsSQL, createObservationsSQL} {
		if _, execErr := pool.Exec(ctx, stmt); execErr != nil {
			return fmt.Errorf("ensure schema: %w", execErr)
		}
	}
	return nil
}

// UpsertSnapshot replaces the snapshot's date wholesale: the header row is
// upserted and the day's observations are swapped inside one transaction.
func (s *Store) UpsertSnapshot(ctx context.Context, snap rates.Snapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	date := snap.DateKey()
	if _, err := tx.Exec(ctx, upsertSnapshotSQL,
		date,
		snap.AsAtAEST,
		snap.Source,
		snap.SourceURL,
		snap.Base,
		len(snap.Rates),
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteObservationsSQL, date); err != nil {
		return fmt.Errorf("delete observations: %w", err)
	}

	rows := observationRows(snap)
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"rate_observations"}, observationColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.ObservationDate, r.Code, r.PerAUD, r.AUDPerUnit, r.Decimals, r.Title}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy observations: %w", err)
	}
	if int(copied) != len(rows) {
		return fmt.Errorf("copy observations: wrote %d of %d rows", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

var _ SnapshotStore = (*Store)(nil)
