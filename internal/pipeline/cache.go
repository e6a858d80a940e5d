package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// Errors returned by Cache.
var (
	// ErrNilDevice is returned when creating a pipeline without a device.
	ErrNilDevice = errors.New("pipeline: device is nil")

	// ErrCreateFailed wraps any error the native device returns while
	// creating a pipeline.
	ErrCreateFailed = errors.New("pipeline: native pipeline creation failed")
)

// Cache caches compiled render and compute pipeline-state objects by the
// CRC32 key spec §4.5 defines. There is no eviction: the cache grows to the
// combinatorial space of state the application actually reaches and stays
// there, matching the original's unbounded hash map.
//
// Thread safety: Cache is safe for concurrent use via a double-check
// RWMutex, the same shape as backend/native/pipeline_cache_core.go.
type Cache struct {
	mu sync.RWMutex

	render  map[uint32]hal.RenderPipeline
	compute map[uint32]hal.ComputePipeline

	hits, misses uint64
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		render:  make(map[uint32]hal.RenderPipeline),
		compute: make(map[uint32]hal.ComputePipeline),
	}
}

// GetOrCreateRender returns the cached pipeline for key, creating it via
// create on a miss. create is invoked with the cache's write lock held to
// avoid a thundering herd of identical creations.
func (c *Cache) GetOrCreateRender(device hal.Device, key RenderKey, create func(hal.Device) (hal.RenderPipeline, error)) (hal.RenderPipeline, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	h := key.Hash()

	c.mu.RLock()
	if p, ok := c.render[h]; ok {
		c.mu.RUnlock()
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.render[h]; ok {
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}

	p, err := create(device)
	if err != nil {
		return nil, errors.Join(ErrCreateFailed, err)
	}
	c.render[h] = p
	atomic.AddUint64(&c.misses, 1)
	return p, nil
}

// GetOrCreateCompute returns the cached compute pipeline for key, creating
// it via create on a miss.
func (c *Cache) GetOrCreateCompute(device hal.Device, key ComputeKey, create func(hal.Device) (hal.ComputePipeline, error)) (hal.ComputePipeline, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	h := key.Hash()

	c.mu.RLock()
	if p, ok := c.compute[h]; ok {
		c.mu.RUnlock()
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.compute[h]; ok {
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}

	p, err := create(device)
	if err != nil {
		return nil, errors.Join(ErrCreateFailed, err)
	}
	c.compute[h] = p
	atomic.AddUint64(&c.misses, 1)
	return p, nil
}

// Stats returns cache hit/miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// Len returns the total number of cached pipelines, render and compute
// combined.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.render) + len(c.compute)
}
