// Package factory opens the version store named by a DSN.
package factory

import (
	"context"
	"fmt"

	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/adapters/repository/postgres"
	"github.com/okian/swing/internal/adapters/repository/sqlite"
	"github.com/okian/swing/internal/config"
)

// Open returns a store for dsn: memory://, sqlite://<path> or postgres://...
func Open(ctx context.Context, dsn string) (repository.Store, error) {
	switch scheme := config.StoreScheme(dsn); scheme {
	case "memory":
		return repository.NewMemory(), nil
	case "sqlite":
		return sqlite.Open(ctx, dsn)
	case "postgres", "postgresql":
		return postgres.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported store scheme %q", config.ErrInvalidConfig, scheme)
	}
}
