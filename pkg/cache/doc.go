// Package cache holds typed key-value caches used for sessions, search
// results and resource definitions.
//
// [Memory] keeps entries in process with TTL expiry and an optional LRU
// bound. [Redis] shares entries between instances and encodes values with a
// [Marshaler], JSON by default. Both satisfy [Cache], so a deployment can
// start on memory and move to Redis without touching callers.
//
//	results := cache.NewMemory[SearchResults](
//	    cache.WithDefaultTTL(time.Minute),
//	    cache.WithMaxEntries(1000),
//	)
//	defer results.Close()
//
//	hits, err := cache.GetOrSet(ctx, results, "user:dup", func(ctx context.Context) (SearchResults, time.Duration, error) {
//	    rows, err := search(ctx, "dup")
//	    return rows, 0, err
//	})
//
// GetOrSet collapses concurrent misses on one key into a single load.
package cache
