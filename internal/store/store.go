// Package store persists run state (delta fingerprints) and the website page
// cache behind one interface with SQLite, Postgres, and in-memory backends.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/db"
)

// Store is a named-value store plus a TTL page cache. GetValue and
// GetCachedPage return (nil, nil) when nothing is stored. SetValue replaces
// the stored value in a single statement.
type Store interface {
	GetValue(ctx context.Context, name string) ([]byte, error)
	SetValue(ctx context.Context, name string, value []byte) error
	DeleteValue(ctx context.Context, name string) error

	GetCachedPage(ctx context.Context, url string) ([]byte, error)
	SetCachedPage(ctx context.Context, url string, data []byte, ttl time.Duration) error
	DeleteExpiredPages(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver: "sqlite" (default), "postgres", or
// "memory". The store is migrated before it is returned.
func Open(ctx context.Context, driver, dsn string, poolCfg *db.PoolConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = "leads.db"
		}
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, poolCfg)
	case "memory":
		s = NewMemory()
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
