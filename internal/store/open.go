package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-lms/internal/platform/cache"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/platform/database"
)

// Backend is an opened store plus whatever must be closed with it.
type Backend struct {
	Store Store
	DB    *database.DB // set for the postgres backend
	close func()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open builds the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory, "":
		return &Backend{Store: NewMemoryStore()}, nil

	case config.StoreFile:
		s, err := NewFileStore(cfg.Store.FilePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s}, nil

	case config.StoreRedis:
		c, err := cache.New(ctx, cfg.Cache.URL, cfg.Store.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("connecting cache: %w", err)
		}
		s, err := NewRedisStore(c)
		if err != nil {
			c.Close()
			return nil, err
		}
		return &Backend{Store: s, close: func() {
			if err := c.Close(); err != nil {
				slog.Warn("closing cache", "error", err)
			}
		}}, nil

	case config.StorePostgres:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		s, err := NewPostgresStore(db.Pool)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{Store: s, DB: db, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
