// Package backend opens the store implementation selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/db"
	"github.com/albapepper/petcare-telemetry/internal/sqlitedb"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

// Open connects to the backend named by cfg.StoreDriver and applies its
// schema. The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		sqlCfg := sqlitedb.DefaultConfig()
		sqlCfg.DBPath = cfg.SQLitePath
		s, err := sqlitedb.New(ctx, sqlCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
