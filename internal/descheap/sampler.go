package descheap

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/gogpu/gputypes"
)

// MaxSamplers is the fixed bound on distinct samplers the cache will hold
// (spec §4.2's S, resolved at 2048 — see DESIGN.md Open Question 2).
const MaxSamplers = 2048

// ErrSamplerCacheFull is returned when a genuinely new sampler fingerprint
// is requested after MaxSamplers distinct samplers are already cached.
var ErrSamplerCacheFull = errors.New("descheap: sampler cache is full")

// SamplerDescriptor is the subset of sampler state that determines whether
// two samplers are interchangeable: filtering, addressing, and maximum
// anisotropy, all of which go into the fingerprint key. Comparison is not
// part of the descriptor.
type SamplerDescriptor struct {
	MinFilter    gputypes.FilterMode
	MagFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	AddressModeW gputypes.AddressMode
	MaxAnisotropy uint8
}

// fingerprint computes the 32-bit FNV-1a hash of the descriptor's packed
// fields, used as the sampler_map key in the original.
func (d SamplerDescriptor) fingerprint() uint32 {
	h := fnv.New32a()
	var buf [7]byte
	buf[0] = byte(d.MinFilter)
	buf[1] = byte(d.MagFilter)
	buf[2] = byte(d.MipmapFilter)
	buf[3] = byte(d.AddressModeU)
	buf[4] = byte(d.AddressModeV)
	buf[5] = byte(d.AddressModeW)
	buf[6] = d.MaxAnisotropy
	_, _ = h.Write(buf[:])
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], h.Sum32())
	return binary.LittleEndian.Uint32(out[:])
}

// SamplerCache deduplicates sampler descriptors onto a bounded set of
// backing-heap slots, mirroring SamplerAllocator's sampler_map in the
// original but with an explicit capacity rather than an unbounded map.
type SamplerCache struct {
	mu      sync.RWMutex
	byFP    map[uint32]uint32 // fingerprint -> backing slot index
	backing *Backing
}

// NewSamplerCache creates a SamplerCache backed by its own Backing heap of
// MaxSamplers slots.
func NewSamplerCache() *SamplerCache {
	return &SamplerCache{
		byFP:    make(map[uint32]uint32),
		backing: NewBacking(MaxSamplers),
	}
}

// GetOrCreate returns the backing-heap slot for desc, creating (via create)
// and caching it on first use. create is called with the cache's write lock
// held, matching the double-check pattern used throughout the pack's
// caches.
func (c *SamplerCache) GetOrCreate(desc SamplerDescriptor, create func(slot uint32) error) (uint32, error) {
	fp := desc.fingerprint()

	c.mu.RLock()
	if slot, ok := c.byFP[fp]; ok {
		c.mu.RUnlock()
		return slot, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if slot, ok := c.byFP[fp]; ok {
		return slot, nil
	}

	slot, err := c.backing.Alloc()
	if err != nil {
		return 0, ErrSamplerCacheFull
	}
	if create != nil {
		if err := create(slot); err != nil {
			_ = c.backing.Free(slot)
			return 0, err
		}
	}
	c.byFP[fp] = slot
	return slot, nil
}

// Clear empties the cache and its backing heap. Only safe to call once the
// device is idle (DESIGN.md Open Question 2); a live sampler slot freed
// while in use by an in-flight frame is a use-after-free.
func (c *SamplerCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFP = make(map[uint32]uint32)
	c.backing = NewBacking(MaxSamplers)
}

// Len returns the number of distinct samplers currently cached.
func (c *SamplerCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byFP)
}
