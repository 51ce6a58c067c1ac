// Package sqlite implements repository.Store on SQLite (modernc.org/sqlite).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/pkg/logger"
	"github.com/okian/swing/pkg/metrics"
)

var _ repository.Store = (*Store)(nil)

// Store persists versions in one SQLite database. All access goes through a
// single connection, so commit transactions are serialised.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens dsn (sqlite://path or sqlite://:memory:) and applies migrations.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}
	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection: ":memory:" databases are per connection, and writers
	// never contend for the file lock.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, now: time.Now, log: logger.Get().Named("sqlite")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Commit implements repository.Store: insert inactive, then flip, in one transaction.
func (s *Store) Commit(ctx context.Context, b repository.Bundle) (model.PayloadVersion, error) {
	b, err := repository.Prepare(b)
	if err != nil {
		return model.PayloadVersion{}, err
	}
	moments, traces, summary, err := encode(b)
	if err != nil {
		return model.PayloadVersion{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PayloadVersion{}, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	v := b.Version
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM payload_versions WHERE game_id = ?`,
		v.GameID,
	).Scan(&v.VersionNumber); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("allocate version: %w", err)
	}
	v.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	if _, err := tx.ExecContext(ctx, `
INSERT INTO payload_versions (
	game_id, version_number, content_hash, moment_count, event_count,
	generation_source, pipeline_run_id, is_active, created_at,
	sport, moments_json, traces_json, summary_json
) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		v.GameID, v.VersionNumber, v.ContentHash, v.MomentCount, v.EventCount,
		v.GenerationSource, v.PipelineRunID, v.CreatedAt.UnixMilli(),
		b.Sport, moments, traces, summary,
	); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("insert version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE payload_versions SET is_active = 0 WHERE game_id = ? AND is_active = 1`, v.GameID,
	); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("deactivate previous: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE payload_versions SET is_active = 1 WHERE game_id = ? AND version_number = ?`, v.GameID, v.VersionNumber,
	); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("activate version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.PayloadVersion{}, fmt.Errorf("commit version: %w", err)
	}

	v.IsActive = true
	s.log.Debug(ctx, "version committed",
		logger.String("game_id", v.GameID),
		logger.Int("version", v.VersionNumber))
	return v, nil
}

const selectBundle = `
SELECT game_id, version_number, content_hash, moment_count, event_count,
       generation_source, pipeline_run_id, is_active, created_at,
       sport, moments_json, traces_json, summary_json
FROM payload_versions`

// Active implements repository.Store.
func (s *Store) Active(ctx context.Context, gameID string) (repository.Bundle, error) {
	b, err := scanBundle(s.db.QueryRowContext(ctx, selectBundle+` WHERE game_id = ? AND is_active = 1`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return repository.Bundle{}, fmt.Errorf("%w: %s", repository.ErrNoActiveVersion, gameID)
	}
	return b, err
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, gameID string, version int) (repository.Bundle, error) {
	b, err := scanBundle(s.db.QueryRowContext(ctx, selectBundle+` WHERE game_id = ? AND version_number = ?`, gameID, version))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return repository.Bundle{}, fmt.Errorf("%w: %s v%d", repository.ErrNotFound, gameID, version)
	}
	return b, err
}

// List implements repository.Store.
func (s *Store) List(ctx context.Context, gameID string) ([]model.PayloadVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, version_number, content_hash, moment_count, event_count,
       generation_source, pipeline_run_id, is_active, created_at
FROM payload_versions
WHERE game_id = ?
ORDER BY version_number ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	out := []model.PayloadVersion{}
	for rows.Next() {
		var (
			v       model.PayloadVersion
			active  int
			created int64
		)
		if err := rows.Scan(&v.GameID, &v.VersionNumber, &v.ContentHash, &v.MomentCount, &v.EventCount,
			&v.GenerationSource, &v.PipelineRunID, &active, &created); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.IsActive = active == 1
		v.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return out, nil
}

// Stats implements repository.Store.
func (s *Store) Stats(ctx context.Context) (repository.Stats, error) {
	var st repository.Stats
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT game_id), COUNT(*), COALESCE(SUM(is_active), 0)
FROM payload_versions`).Scan(&st.Games, &st.Versions, &st.ActiveGames); err != nil {
		return repository.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func scanBundle(row *sql.Row) (repository.Bundle, error) {
	var (
		b                        repository.Bundle
		active                   int
		created                  int64
		moments, traces, summary string
	)
	v := &b.Version
	if err := row.Scan(&v.GameID, &v.VersionNumber, &v.ContentHash, &v.MomentCount, &v.EventCount,
		&v.GenerationSource, &v.PipelineRunID, &active, &created,
		&b.Sport, &moments, &traces, &summary); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Bundle{}, err
		}
		return repository.Bundle{}, fmt.Errorf("scan bundle: %w", err)
	}
	v.IsActive = active == 1
	v.CreatedAt = time.UnixMilli(created).UTC()

	if err := json.Unmarshal([]byte(moments), &b.Moments); err != nil {
		return repository.Bundle{}, fmt.Errorf("decode moments: %w", err)
	}
	if err := json.Unmarshal([]byte(traces), &b.Traces); err != nil {
		return repository.Bundle{}, fmt.Errorf("decode traces: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &b.Summary); err != nil {
		return repository.Bundle{}, fmt.Errorf("decode summary: %w", err)
	}
	return b, nil
}

func encode(b repository.Bundle) (moments, traces, summary string, err error) {
	m, err := json.Marshal(b.Moments)
	if err != nil {
		return "", "", "", fmt.Errorf("encode moments: %w", err)
	}
	t, err := json.Marshal(b.Traces)
	if err != nil {
		return "", "", "", fmt.Errorf("encode traces: %w", err)
	}
	s, err := json.Marshal(b.Summary)
	if err != nil {
		return "", "", "", fmt.Errorf("encode summary: %w", err)
	}
	return string(m), string(t), string(s), nil
}
