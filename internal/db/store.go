package db

import (
	"context"
	"fmt"

	"hotlist_spider/internal/config"
	"hotlist_spider/internal/models"
)

// Store persists hot list items keyed by question id.
type Store interface {
	SaveItems(ctx context.Context, items []models.HotListItem) (int, error)
	RecentItems(ctx context.Context, limit int) ([]models.HotListItem, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
	Stats(ctx context.Context) (models.Summary, error)
	Close() error
}

var (
	_ Store = (*MongoDB)(nil)
	_ Store = (*MemoryStore)(nil)
)

func Open(ctx context.Context, cfg config.DBConfig) (Store, error) {
	switch cfg.Driver {
	case "mongo":
		return NewMongoDB(ctx, cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}
