package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps the cache in a shared database so several
// processes can reuse each other's results.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgres(dsn string, opts Options) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db, ttl: opts.TTL}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations from multiple services.
	// Note: In production, use dedicated migration tools (e.g., golang-migrate/migrate)
	// that run as a separate deployment step before app services start.
	const lockID = 987654321 // arbitrary number for this application's migration lock

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS llm_cache (
			fingerprint TEXT PRIMARY KEY,
			result JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create llm_cache table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	var entry Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT result, created_at FROM llm_cache WHERE fingerprint = $1`,
		key,
	).Scan(&entry.Result, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.expired(s.ttl, time.Now()) {
		return nil, nil
	}
	return &entry, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, entry *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_cache (fingerprint, result, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (fingerprint)
		DO UPDATE SET result = EXCLUDED.result, created_at = EXCLUDED.created_at`,
		key, []byte(entry.Result), entry.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE llm_cache`)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
