// Package cache memoizes upstream page bodies per (locale, url).
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/maltedev/wishlily-proxy/internal/fetcher"
	"github.com/maltedev/wishlily-proxy/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxEntries   = 512
	defaultTTL          = 30 * time.Minute
	defaultFetchTimeout = 15 * time.Second
)

type Config struct {
	MaxEntries int
	TTL        time.Duration
	// FetchTimeout bounds a shared upstream fetch once it no longer follows
	// the caller that started it.
	FetchTimeout time.Duration
}

// Cache is a two-tier page cache in front of a Fetcher. The memory tier is a
// bounded LRU with expiry; the optional remote tier is shared between
// processes. Failed fetches are never stored.
type Cache struct {
	fetcher      fetcher.Fetcher
	memory       *expirable.LRU[Key, string]
	remote       Store
	group        singleflight.Group
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// New builds a Cache. remote may be nil.
func New(f fetcher.Fetcher, cfg Config, remote Store, logger *slog.Logger) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}

	return &Cache{
		fetcher:      f,
		memory:       expirable.NewLRU[Key, string](cfg.MaxEntries, nil, cfg.TTL),
		remote:       remote,
		fetchTimeout: cfg.FetchTimeout,
		logger:       logger.With("component", "cache"),
	}
}

// GetOrFetch returns the body for url under locale, fetching it on a miss.
// Concurrent misses for the same key share one upstream request. The shared
// request outlives any single caller; each caller stops waiting on its own
// ctx.
func (c *Cache) GetOrFetch(ctx context.Context, url, locale string) (string, error) {
	key := Key{Locale: locale, URL: url}

	if body, ok := c.memory.Get(key); ok {
		metrics.ObserveCacheLookup("memory", "hit")
		return body, nil
	}
	metrics.ObserveCacheLookup("memory", "miss")

	if body, ok := c.lookupRemote(ctx, key); ok {
		c.memory.Add(key, body)
		return body, nil
	}

	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetch(fetchCtx, key)
	})

	select {
	case <-ctx.Done():
		return "", &fetcher.FetchError{URL: url, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) lookupRemote(ctx context.Context, key Key) (string, bool) {
	if c.remote == nil {
		return "", false
	}

	body, ok, err := c.remote.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("remote cache lookup failed", "url", key.URL, "error", err)
		metrics.ObserveCacheLookup("redis", "error")
		return "", false
	case !ok:
		metrics.ObserveCacheLookup("redis", "miss")
		return "", false
	}

	metrics.ObserveCacheLookup("redis", "hit")
	return body, true
}

func (c *Cache) fetch(ctx context.Context, key Key) (string, error) {
	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, fetcher.Request{URL: key.URL, Locale: key.Locale})
	if err != nil {
		metrics.ObserveUpstreamFetch(key.URL, "error", time.Since(start))
		c.logger.Error("upstream fetch failed", "url", key.URL, "error", err)
		return "", err
	}
	metrics.ObserveUpstreamFetch(key.URL, "ok", time.Since(start))

	body := string(resp.Body)
	c.memory.Add(key, body)

	if c.remote != nil {
		if err := c.remote.Set(ctx, key, body); err != nil {
			c.logger.Warn("remote cache store failed", "url", key.URL, "error", err)
		}
	}

	c.logger.Debug("page fetched",
		"url", key.URL,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"duration", time.Since(start))

	return body, nil
}

func (c *Cache) Len() int {
	return c.memory.Len()
}
