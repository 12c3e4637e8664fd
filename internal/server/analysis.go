package server

import (
	"sync"
	"time"
)

// AnalysisCache holds a derived view of cluster state, such as the last
// diagnostic analysis, that goes stale once a command has run.
type AnalysisCache interface {
	Invalidate()
}

// Analysis is a cached analysis result.
type Analysis struct {
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemoryAnalysisCache keeps the most recent Analysis in memory.
type MemoryAnalysisCache struct {
	mu            sync.RWMutex
	last          *Analysis
	invalidations uint64
}

// NewMemoryAnalysisCache returns an empty cache.
func NewMemoryAnalysisCache() *MemoryAnalysisCache {
	return &MemoryAnalysisCache{}
}

// Store replaces the cached analysis.
func (c *MemoryAnalysisCache) Store(a Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &a
}

// Last returns the cached analysis, if any.
func (c *MemoryAnalysisCache) Last() (Analysis, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Analysis{}, false
	}
	return *c.last, true
}

// Invalidate drops the cached analysis.
func (c *MemoryAnalysisCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = nil
	c.invalidations++
}

// Invalidations returns how often the cache has been invalidated.
func (c *MemoryAnalysisCache) Invalidations() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invalidations
}
