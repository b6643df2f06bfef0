package fetcher

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/landrank/internal/model"
)

// LoaderFunc loads a dataset from a source.
type LoaderFunc func(ctx context.Context, src string) (*model.Dataset, error)

// DatasetCache is a concurrent-safe LRU cache of loaded datasets with TTL
// expiration. Local files are re-read when their size or modification time
// changes. Concurrent loads of the same source share one read, and every
// caller receives its own clone.
type DatasetCache struct {
	mu         sync.RWMutex
	entries    map[string]*datasetEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	load       LoaderFunc
	group      singleflight.Group
	hits       atomic.Int64
	misses     atomic.Int64
}

type datasetEntry struct {
	ds        *model.Dataset
	stamp     fileStamp
	createdAt time.Time
}

// fileStamp fingerprints a local file; zero for remote sources.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewDatasetCache creates a DatasetCache with the given capacity and TTL.
func NewDatasetCache(maxEntries int, ttl time.Duration, load LoaderFunc) *DatasetCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &DatasetCache{
		entries:    make(map[string]*datasetEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		load:       load,
	}
}

func stampOf(src string) fileStamp {
	if IsRemote(src) {
		return fileStamp{}
	}
	info, err := os.Stat(src)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{size: info.Size(), modTime: info.ModTime()}
}

// Get returns a clone of the dataset for src, loading it on a miss.
func (c *DatasetCache) Get(ctx context.Context, src string) (*model.Dataset, error) {
	stamp := stampOf(src)
	if ds := c.lookup(src, stamp); ds != nil {
		return ds.Clone(), nil
	}

	// The shared load outlives any single caller; each caller waits on its
	// own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(src, func() (any, error) {
		ds, err := c.load(loadCtx, src)
		if err != nil {
			return nil, err
		}
		c.put(src, stamp, ds)
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "cache: load %s", src)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			zap.L().Debug("dataset load shared", zap.String("source", src))
		}
		return res.Val.(*model.Dataset).Clone(), nil
	}
}

func (c *DatasetCache) lookup(src string, stamp fileStamp) *model.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[src]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	if time.Since(entry.createdAt) > c.ttl || entry.stamp != stamp {
		delete(c.entries, src)
		c.removeFromOrder(src)
		c.misses.Add(1)
		return nil
	}

	// Move to back (most recently used).
	c.removeFromOrder(src)
	c.order = append(c.order, src)
	c.hits.Add(1)
	return entry.ds
}

func (c *DatasetCache) put(src string, stamp fileStamp, ds *model.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &datasetEntry{ds: ds, stamp: stamp, createdAt: time.Now()}
	if _, ok := c.entries[src]; ok {
		c.entries[src] = entry
		c.removeFromOrder(src)
		c.order = append(c.order, src)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[src] = entry
	c.order = append(c.order, src)
}

// Invalidate drops the cached dataset for src. It reports whether an entry
// was removed.
func (c *DatasetCache) Invalidate(src string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[src]; !ok {
		return false
	}
	delete(c.entries, src)
	c.removeFromOrder(src)
	return true
}

// Stats returns cache performance statistics.
func (c *DatasetCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *DatasetCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
