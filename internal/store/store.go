// Package store persists the scraped-page cache. Leads are never stored.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/model"
)

// Store is the page cache used by scrape.CachedScraper.
type Store interface {
	// GetCachedPage returns nil, nil on a miss or an expired entry.
	GetCachedPage(ctx context.Context, url string) (*model.PageCache, error)
	// SetCachedPage stores page under url, replacing any previous entry.
	SetCachedPage(ctx context.Context, url string, page model.Page, source string, ttl time.Duration) error
	DeleteExpiredPages(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open opens and migrates the store for driver. DriverNone (or "") returns
// a nil Store and no error.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverSQLite:
		st, err = NewSQLite(dsn)
	case DriverPostgres:
		st, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
