package cache

import (
	"strings"
	"time"
)

// TTLs per query shape. Volatile namespaces expire fast; singleton keys like
// the current headline live until explicitly invalidated.
const (
	// TTLVolatile is for breaking/live/top-stories reads.
	TTLVolatile = 60 * time.Second
	// TTLListing is for paginated listing reads.
	TTLListing = 600 * time.Second
	// TTLItem is for by-id/by-slug single item reads.
	TTLItem = 1800 * time.Second
	// TTLIndefinite marks keys without expiry, invalidated on write.
	TTLIndefinite = time.Duration(0)
)

// Key builds a hierarchical cache key: {site}:{entity}:{kind} followed by the
// ordered query parameters joined by ':'. Two logically identical queries
// must produce identical keys, so callers pass parameters in a fixed order.
func Key(site, entity, kind string, params ...string) string {
	parts := make([]string, 0, 3+len(params))
	parts = append(parts, site, entity, kind)
	parts = append(parts, params...)
	return strings.Join(parts, ":")
}

// Namespace builds a glob pattern covering every key of a site/entity pair.
// Invalidation is deliberately over-broad: deleting too much costs a few
// store reads, leaving stale entries reachable costs correctness.
func Namespace(site, entity string) string {
	return site + ":" + entity + ":*"
}

// KindNamespace builds a glob pattern covering one query kind.
func KindNamespace(site, entity, kind string) string {
	return site + ":" + entity + ":" + kind + ":*"
}

// namespaceOf extracts the {site}:{entity} prefix of a key for metrics labels.
func namespaceOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return key
	}
	return parts[0] + ":" + parts[1]
}
