package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Timestamps are
// stored as Unix milliseconds so expiry checks compare integers.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS page_cache (
	url         TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	page_url    TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	markdown    TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	source      TEXT NOT NULL,
	cached_at   INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

// Migrate creates the cache table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCachedPage implements Store.
func (s *SQLiteStore) GetCachedPage(ctx context.Context, url string) (*model.PageCache, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, page_url, title, markdown, status_code, source, cached_at, expires_at
		 FROM page_cache WHERE url = ? AND expires_at > ?`,
		url, s.now().UnixMilli(),
	)

	var (
		pc                  model.PageCache
		cachedAt, expiresAt int64
	)
	err := row.Scan(&pc.ID, &pc.URL, &pc.Page.URL, &pc.Page.Title, &pc.Page.Markdown,
		&pc.Page.StatusCode, &pc.Source, &cachedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached page")
	}
	pc.CachedAt = time.UnixMilli(cachedAt).UTC()
	pc.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &pc, nil
}

// SetCachedPage implements Store.
func (s *SQLiteStore) SetCachedPage(ctx context.Context, url string, page model.Page, source string, ttl time.Duration) error {
	now := s.now().UTC()
	pageURL := page.URL
	if pageURL == "" {
		pageURL = url
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_cache (url, id, page_url, title, markdown, status_code, source, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (url) DO UPDATE SET
		   id = excluded.id, page_url = excluded.page_url, title = excluded.title,
		   markdown = excluded.markdown, status_code = excluded.status_code, source = excluded.source,
		   cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		url, uuid.New().String(), pageURL, page.Title, page.Markdown, page.StatusCode, source,
		now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	return eris.Wrap(err, "sqlite: set cached page")
}

// DeleteExpiredPages implements Store.
func (s *SQLiteStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM page_cache WHERE expires_at <= ?`, s.now().UnixMilli(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired pages")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
