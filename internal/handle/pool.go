package handle

import (
	"errors"
	"sync"
)

// Errors returned by Pool.
var (
	// ErrPoolFull is returned by Alloc when every slot is in use.
	ErrPoolFull = errors.New("handle: pool is full")

	// ErrInvalidHandle is returned when a handle's index or generation does
	// not match a live slot.
	ErrInvalidHandle = errors.New("handle: invalid or stale handle")
)

// Handle is an opaque 32-bit reference into a Pool. It packs a slot index
// (low 24 bits) with a generation counter (high 8 bits) so that a stale
// handle from a freed-and-reused slot is rejected instead of silently
// resolving to the wrong resource.
type Handle uint32

const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
)

// Nil is the zero Handle; no live slot ever allocates index 0 with
// generation 0 simultaneously, since the pool reserves slot 0's initial
// generation as a sentinel.
const Nil Handle = 0

func makeHandle(index uint32, generation uint8) Handle {
	return Handle(uint32(generation)<<indexBits | (index & indexMask))
}

func (h Handle) index() uint32 {
	return uint32(h) & indexMask
}

func (h Handle) generation() uint8 {
	return uint8(uint32(h) >> indexBits)
}

// slot holds either a live value or, when free, the index of the next free
// slot (the intrusive free-list link) plus the generation to stamp onto the
// next handle issued for this slot.
type slot[T any] struct {
	value      T
	nextFree   uint32
	generation uint8
	live       bool
}

// Pool is a thread-safe, fixed-capacity slab allocator for values of type T.
// Allocation and deallocation are O(1): the free-list is threaded through
// the unused slots themselves, so no separate free-list storage is needed.
//
// Handle allocation/deallocation is the one operation the spec allows to
// cross the single-renderer-thread boundary; Pool's mutex is what makes that
// safe.
type Pool[T any] struct {
	mu       sync.Mutex
	slots    []slot[T]
	firstFree uint32 // index of first free slot, or sentinel noFree
	count    int
}

const noFree = 1<<32 - 1

// New creates a Pool with room for exactly capacity live values. Capacity is
// fixed for the lifetime of the pool, matching the original's
// Pool<T, MAX_COUNT> template parameter.
func New[T any](capacity int) *Pool[T] {
	p := &Pool[T]{
		slots:     make([]slot[T], capacity),
		firstFree: 0,
	}
	for i := range p.slots {
		if i == capacity-1 {
			p.slots[i].nextFree = noFree
		} else {
			p.slots[i].nextFree = uint32(i + 1)
		}
	}
	if capacity == 0 {
		p.firstFree = noFree
	}
	return p
}

// Alloc reserves a slot, stores value in it, and returns the handle that
// refers to it. It returns ErrPoolFull once Capacity() live values are
// already allocated.
func (p *Pool[T]) Alloc(value T) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.firstFree == noFree {
		return Nil, ErrPoolFull
	}

	idx := p.firstFree
	s := &p.slots[idx]
	p.firstFree = s.nextFree

	s.value = value
	s.live = true
	p.count++

	// Slot 0 at generation 0 would encode as Nil; skip that generation.
	if idx == 0 && s.generation == 0 {
		s.generation = 1
	}
	return makeHandle(idx, s.generation), nil
}

// Dealloc releases the slot referred to by h, returning it to the free list
// and bumping its generation so any handle still pointing at it becomes
// stale. Dealloc is idempotent against double-free in the sense that it
// always reports ErrInvalidHandle rather than corrupting the free list.
func (p *Pool[T]) Dealloc(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.live(h)
	if err != nil {
		return err
	}

	var zero T
	s.value = zero
	s.live = false
	s.generation++
	s.nextFree = p.firstFree
	p.firstFree = h.index()
	p.count--

	return nil
}

// Get returns the value stored at h. It returns ErrInvalidHandle if h does
// not refer to a currently live slot (freed, stale generation, or
// out-of-range index).
func (p *Pool[T]) Get(h Handle) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.live(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Set overwrites the value stored at h in place, without changing its
// generation or liveness.
func (p *Pool[T]) Set(h Handle, value T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.live(h)
	if err != nil {
		return err
	}
	s.value = value
	return nil
}

// live returns the slot for h, or ErrInvalidHandle. Must be called with
// p.mu held.
func (p *Pool[T]) live(h Handle) (*slot[T], error) {
	idx := h.index()
	if int(idx) >= len(p.slots) {
		return nil, ErrInvalidHandle
	}
	s := &p.slots[idx]
	if !s.live || s.generation != h.generation() {
		return nil, ErrInvalidHandle
	}
	return s, nil
}

// Len returns the number of currently live values.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Capacity returns the fixed maximum number of simultaneously live values.
func (p *Pool[T]) Capacity() int {
	return len(p.slots)
}

// IsFull reports whether the pool currently has no free slots.
func (p *Pool[T]) IsFull() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstFree == noFree
}

// Each calls fn for every currently live (handle, value) pair. fn must not
// call back into the pool; Each holds the pool lock for its duration.
func (p *Pool[T]) Each(fn func(Handle, T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		s := &p.slots[i]
		if s.live {
			fn(makeHandle(uint32(i), s.generation), s.value)
		}
	}
}
