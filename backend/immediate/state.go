package immediate

import (
	"sync"

	"github.com/embergfx/backend/gfx"
	"github.com/embergfx/backend/internal/pipeline"
)

// stateObject is the cached, decoded form of a gfx.State: the packed
// fields internal/pipeline.StateTuple needs, computed once per distinct
// State value rather than re-decoded on every SetState call. Per spec
// REDESIGN FLAG, the original immediate-mode back-end allocated a fresh
// D3D11 state-object triple (rasterizer/depth-stencil/blend) on every
// setState call; this cache is the fix, mirrored here at the level this
// backend actually has available (a decoded tuple feeding the shared PSO
// cache) since hal exposes one monolithic pipeline object rather than
// D3D11's three separate state objects.
type stateObject struct {
	tuple pipeline.StateTuple
}

// stateCache deduplicates gfx.State values onto their decoded stateObject,
// using the same double-checked RWMutex pattern as
// internal/pipeline.Cache and internal/descheap.SamplerCache.
type stateCache struct {
	mu    sync.RWMutex
	byKey map[gfx.State]*stateObject
}

func newStateCache() *stateCache {
	return &stateCache{byKey: make(map[gfx.State]*stateObject)}
}

// getOrCreate returns the cached stateObject for s, decoding and storing
// one on first use.
func (c *stateCache) getOrCreate(s gfx.State) *stateObject {
	c.mu.RLock()
	obj, ok := c.byKey[s]
	c.mu.RUnlock()
	if ok {
		return obj
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if obj, ok := c.byKey[s]; ok {
		return obj
	}
	obj = &stateObject{tuple: stateTupleFromState(s)}
	c.byKey[s] = obj
	return obj
}
