package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/gocatalog/pkg/bootstrap"
	"github.com/abgdnv/gocatalog/pkg/config"
)

// Closer releases the resources held by a store.
type Closer func(ctx context.Context) error

// Open connects to the database described by cfg and returns the matching ProductStore.
// The implementation is chosen by the URL scheme.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (ProductStore, Closer, error) {
	switch {
	case cfg.IsMongo():
		client, err := bootstrap.NewMongoClient(ctx, cfg.URL, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using MongoDB product store", "database", cfg.Name, "collection", cfg.Collection)
		coll := client.Database(cfg.Name).Collection(cfg.Collection)
		return NewMongoStore(coll), client.Disconnect, nil

	case cfg.IsPostgres():
		pool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		pgStore := NewPgStore(pool)
		schemaCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := pgStore.EnsureSchema(schemaCtx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("Using PostgreSQL product store")
		return pgStore, func(context.Context) error { pool.Close(); return nil }, nil

	case cfg.IsMemory():
		logger.Warn("Using in-memory product store, data is lost on restart")
		return NewMemoryStore(), func(context.Context) error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database URL: %s", config.MaskURL(cfg.URL))
	}
}
