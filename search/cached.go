package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"vidrank/cache"
	"vidrank/feed"
	"vidrank/metrics"
)

// fetchTimeout bounds one upstream fetch shared by all waiters.
const fetchTimeout = 60 * time.Second

// Cached serves repeated requests from a cache and collapses concurrent
// identical misses into one upstream call.
type Cached struct {
	source  Source
	backend string
	cache   cache.Cache
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewCached wraps source. backend labels metrics and logs.
func NewCached(source Source, backend string, c cache.Cache, logger zerolog.Logger) *Cached {
	return &Cached{
		source:  source,
		backend: backend,
		cache:   c,
		logger:  logger,
	}
}

// Search returns the cached records for req.CacheKey(), fetching them on a
// miss. Failed fetches are not cached.
func (c *Cached) Search(ctx context.Context, req Request) ([]feed.VideoRecord, error) {
	key := req.CacheKey()
	if records, ok := c.lookup(ctx, key); ok {
		metrics.RecordCacheLookup(true)
		return records, nil
	}
	metrics.RecordCacheLookup(false)

	ch := c.group.DoChan(key, func() (any, error) {
		// The fetch outlives any single waiter; each caller stops waiting
		// on its own ctx.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		start := time.Now()
		records, err := c.source.Search(fetchCtx, req)
		metrics.RecordSearch(c.backend, err, time.Since(start))
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(records); err == nil {
			c.cache.Set(fetchCtx, key, data)
		} else {
			c.logger.Warn().Err(err).Str("key", key).Msg("encode search results")
		}
		return records, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		c.logger.Warn().Err(res.Err).Str("backend", c.backend).Str("key", key).Msg("search failed")
		return nil, res.Err
	}

	v, shared := res.Val, res.Shared
	records := v.([]feed.VideoRecord)
	c.logger.Debug().
		Str("key", key).
		Int("videos", len(records)).
		Bool("shared", shared).
		Msg("search fetched")
	if shared {
		records = append([]feed.VideoRecord(nil), records...)
	}
	return records, nil
}

func (c *Cached) lookup(ctx context.Context, key string) ([]feed.VideoRecord, bool) {
	data, ok := c.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var records []feed.VideoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("drop undecodable cache entry")
		c.cache.Delete(ctx, key)
		return nil, false
	}
	return records, true
}
