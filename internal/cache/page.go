// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache stores rendered public responses in Valkey. Only published
// content is ever written here; preview responses bypass it.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a page cache. A zero ttl uses DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get returns the cached body for key. Errors and corrupt entries count as
// misses.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}

	body, err := decompress(val)
	if err != nil {
		slog.Warn("page cache entry unreadable", "key", key, "error", err)
		pc.Invalidate(ctx, key)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return body, true
}

// Set stores body under key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, body []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, compress(body), pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// Invalidate removes the given keys.
func (pc *PageCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = pageKeyPrefix + k
	}
	if err := pc.client.Del(ctx, full...).Err(); err != nil {
		slog.Warn("page cache invalidate error", "keys", keys, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "keys", keys)
}

// InvalidatePost removes a post page and every page that lists posts.
func (pc *PageCache) InvalidatePost(ctx context.Context, slug string) {
	pc.Invalidate(ctx, PostKey(slug), HomeKey(), SitemapKey(), FeedKey())
	pc.deletePattern(ctx, pageKeyPrefix+"blog:*")
}

// InvalidateAll removes every cached page. Used when site copy changes,
// since it appears in every layout.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if n := pc.deletePattern(ctx, pageKeyPrefix+"*"); n > 0 {
		slog.Info("page cache fully cleared", "deleted", n)
	}
}

func (pc *PageCache) deletePattern(ctx context.Context, pattern string) int {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "pattern", pattern, "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return deleted
		}
	}
}

// HomeKey is the cache key of the landing page.
func HomeKey() string { return "home" }

// BlogKey is the cache key of a blog index page.
func BlogKey(page int) string { return "blog:" + strconv.Itoa(page) }

// PostKey is the cache key of a published post page.
func PostKey(slug string) string { return "post:" + slug }

// PortfolioKey is the cache key of the portfolio page.
func PortfolioKey() string { return "portfolio" }

// SitemapKey is the cache key of sitemap.xml.
func SitemapKey() string { return "sitemap" }

// FeedKey is the cache key of the RSS feed.
func FeedKey() string { return "feed" }
