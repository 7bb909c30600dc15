package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bundle-console/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const keyLastFetchTime = "last_fetch_time"

// Store persists small pieces of console state (like the last successful
// fetch time) across restarts in a local SQLite file.
type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, cfg models.StateConfig) (*Store, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("state database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening state database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open state database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping state database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize state schema: %w", err)
	}

	return store, nil
}

func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close state database", zap.Error(err))
	}
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS console_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LastFetchTime returns the persisted time of the last successful
// snapshot fetch, or the zero time when nothing has been recorded yet.
func (s *Store) LastFetchTime(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM console_state WHERE key = ?`, keyLastFetchTime).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to read last fetch time: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored fetch time %q: %w", value, err)
	}
	return t, nil
}

// SetLastFetchTime records the time of a successful snapshot fetch.
func (s *Store) SetLastFetchTime(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO console_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		keyLastFetchTime, t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("unable to persist last fetch time: %w", err)
	}
	return nil
}
