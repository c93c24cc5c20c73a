package features

import (
	"fmt"
	"os"
	"sync"
)

// FeatureCache memoizes extracted features per file path.
//
// The first Load for a path reads and analyzes the file; later calls return the
// cached record without disk I/O. Different spellings of the same file (relative
// vs absolute) are cached separately.
//
// FeatureCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := features.NewFeatureCache()
//	f, err := cache.Load("/path/to/logo.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/logo.png") // Optional: force re-analysis
type FeatureCache struct {
	mu      sync.RWMutex
	entries map[string]*ImageFeatures
}

// NewFeatureCache creates an empty cache ready for concurrent use.
func NewFeatureCache() *FeatureCache {
	return &FeatureCache{
		entries: make(map[string]*ImageFeatures),
	}
}

// Load returns the features of the file at path, extracting them on first use.
//
// Returns an error if the file cannot be read, or the *ExtractionError from
// Extract if it is not a usable image. Failed extractions are not cached.
func (c *FeatureCache) Load(path string) (*ImageFeatures, error) {
	c.mu.RLock()
	if f, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	f, err := Extract(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = f
	c.mu.Unlock()

	return f, nil
}

// Len reports how many paths are cached.
func (c *FeatureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every cached record.
func (c *FeatureCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*ImageFeatures)
	c.mu.Unlock()
}

// Evict drops the record for path, if any. The next Load re-reads the file.
func (c *FeatureCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}
