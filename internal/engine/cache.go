// cache.go keeps rendered Markdown site copy in memory so the biography and
// services sections are not converted on every home page render. Entries
// are keyed by setting key and a hash of the source, so an edit is a miss.
package engine

import (
	"html/template"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"estatepress/internal/markdown"
)

type copyKey struct {
	key string
	sum uint64
}

// copyCache is a concurrency-safe cache of rendered Markdown.
type copyCache struct {
	mu      sync.RWMutex
	entries map[copyKey]template.HTML
}

func newCopyCache() *copyCache {
	return &copyCache{entries: make(map[copyKey]template.HTML)}
}

func (c *copyCache) get(k copyKey) (template.HTML, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out, ok := c.entries[k]
	return out, ok
}

// put stores out and drops older renders of the same setting.
func (c *copyCache) put(k copyKey, out template.HTML) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for old := range c.entries {
		if old.key == k.key {
			delete(c.entries, old)
		}
	}
	c.entries[k] = out
	slog.Debug("site copy cached", "key", k.key, "size", len(c.entries))
}

func (c *copyCache) render(key, source string) template.HTML {
	if source == "" {
		return ""
	}
	k := copyKey{key: key, sum: xxhash.Sum64String(source)}
	if out, ok := c.get(k); ok {
		return out
	}
	out := markdown.Render(source)
	c.put(k, out)
	return out
}

func (c *copyCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
