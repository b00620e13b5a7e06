package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS page_cache (
	url         TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	page_url    TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	markdown    TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	source      TEXT NOT NULL,
	cached_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

// Migrate creates the cache table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// GetCachedPage implements Store.
func (s *PostgresStore) GetCachedPage(ctx context.Context, url string) (*model.PageCache, error) {
	var pc model.PageCache
	err := s.pool.QueryRow(ctx,
		`SELECT id, url, page_url, title, markdown, status_code, source, cached_at, expires_at
		 FROM page_cache WHERE url = $1 AND expires_at > now()`,
		url,
	).Scan(&pc.ID, &pc.URL, &pc.Page.URL, &pc.Page.Title, &pc.Page.Markdown,
		&pc.Page.StatusCode, &pc.Source, &pc.CachedAt, &pc.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached page")
	}
	return &pc, nil
}

// SetCachedPage implements Store.
func (s *PostgresStore) SetCachedPage(ctx context.Context, url string, page model.Page, source string, ttl time.Duration) error {
	now := time.Now().UTC()
	pageURL := page.URL
	if pageURL == "" {
		pageURL = url
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO page_cache (url, id, page_url, title, markdown, status_code, source, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (url) DO UPDATE SET
		   id = $2, page_url = $3, title = $4, markdown = $5, status_code = $6,
		   source = $7, cached_at = $8, expires_at = $9`,
		url, uuid.New().String(), pageURL, page.Title, page.Markdown, page.StatusCode, source,
		now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached page")
}

// DeleteExpiredPages implements Store.
func (s *PostgresStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM page_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired pages")
	}
	return int(tag.RowsAffected()), nil
}
