package mapping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// OptionResolver resolves a human-readable option text (e.g. a category name
// shown on the form) into the destination service's opaque record ID.
type OptionResolver interface {
	Resolve(ctx context.Context, table, text string) (string, bool, error)
}

// OptionFetcher loads one option table (text -> opaque ID) from its source
// of truth, typically a CMS option collection.
type OptionFetcher func(ctx context.Context, table string) (map[string]string, error)

// CachedOptions caches option tables with a TTL so every submission does not
// re-fetch the reference collections.
type CachedOptions struct {
	cache   *gocache.Cache
	fetcher OptionFetcher
	mu      sync.Mutex
}

// NewCachedOptions creates an option resolver backed by the given fetcher.
func NewCachedOptions(fetcher OptionFetcher, ttlSeconds int) *CachedOptions {
	ttl := time.Duration(ttlSeconds) * time.Second
	return &CachedOptions{
		cache:   gocache.New(ttl, 10*time.Minute),
		fetcher: fetcher,
	}
}

// Resolve looks up text in the named table, fetching the table on cache miss.
func (o *CachedOptions) Resolve(ctx context.Context, table, text string) (string, bool, error) {
	if data, found := o.cache.Get(table); found {
		metrics.CacheHits.WithLabelValues("options").Inc()
		ids := data.(map[string]string)
		id, ok := ids[text]
		return id, ok, nil
	}

	metrics.CacheMisses.WithLabelValues("options").Inc()

	// Single-flight the refresh; tables are small
	o.mu.Lock()
	defer o.mu.Unlock()

	if data, found := o.cache.Get(table); found {
		ids := data.(map[string]string)
		id, ok := ids[text]
		return id, ok, nil
	}

	ids, err := o.fetcher(ctx, table)
	if err != nil {
		return "", false, fmt.Errorf("failed to load option table %s: %w", table, err)
	}
	o.cache.SetDefault(table, ids)

	logger.Info("Option table loaded",
		zap.String("table", table),
		zap.Int("entries", len(ids)))

	id, ok := ids[text]
	return id, ok, nil
}

// StaticOptions is a fixed in-memory resolver, used offline and in tests.
type StaticOptions struct {
	tables map[string]map[string]string
}

// NewStaticOptions creates a resolver over fixed tables.
func NewStaticOptions(tables map[string]map[string]string) *StaticOptions {
	return &StaticOptions{tables: tables}
}

func (o *StaticOptions) Resolve(_ context.Context, table, text string) (string, bool, error) {
	ids, found := o.tables[table]
	if !found {
		return "", false, nil
	}
	id, ok := ids[text]
	return id, ok, nil
}
