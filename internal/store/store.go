package store

import (
	"context"
	"time"

	"github.com/partscope/partscope/internal/model"
)

// Store defines the persistence interface for the discovery pipeline's
// result and identification caches. Get methods return (nil, nil) on a
// cache miss so callers can distinguish misses from driver failures.
type Store interface {
	// Result cache
	GetResult(ctx context.Context, key string) (*model.ComponentSet, error)
	SetResult(ctx context.Context, key string, set model.ComponentSet, ttl time.Duration) error

	// Identification cache
	GetIdentification(ctx context.Context, imageID string) (*model.Identification, error)
	SetIdentification(ctx context.Context, imageID string, ident model.Identification, ttl time.Duration) error

	// Supply chain cache
	GetSupplyChain(ctx context.Context, productKey string) (*model.SupplyChainReport, error)
	SetSupplyChain(ctx context.Context, productKey string, report model.SupplyChainReport, ttl time.Duration) error

	// Maintenance
	Purge(ctx context.Context) (int, error)
	DeleteExpired(ctx context.Context) (int, error)
	CountResults(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
