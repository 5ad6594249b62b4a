package cache

import (
	"context"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// Cache defines the general caching for the api.
// It abstracts per-machine feature history (ZSET) and run summaries (SET).
type Cache interface {
	// StoreLatest stores one labelled feature row of a machine
	StoreLatest(machineID int, rec types.LabelledRecord) error

	// FetchLatest retrieves the N most recent labelled rows of a machine
	FetchLatest(machineID int, n int) ([]types.LabelledRecord, error)

	// StoreSummary caches a run summary with a TTL
	StoreSummary(ctx context.Context, key string, data any, ttl time.Duration) error

	// FetchSummary retrieves a run summary from cache
	FetchSummary(ctx context.Context, key string) ([]byte, error)

	// Ping checks cache connection
	Ping(ctx context.Context) error

	// Close gracefully closes any connections
	Close()
}
