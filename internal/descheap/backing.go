package descheap

import "errors"

// ErrBackingFull is returned by Backing.Alloc once every backing slot is in
// use.
var ErrBackingFull = errors.New("descheap: backing heap is full")

// ErrInvalidSlot is returned when Free or Copy is given a slot index that is
// not currently allocated.
var ErrInvalidSlot = errors.New("descheap: slot not allocated")

// Backing is the non-shader-visible descriptor heap: every live SRV/UAV/CBV
// gets a permanent slot here, and Copy duplicates a backing-heap descriptor
// into a shader-visible Ring window at draw time (HeapAllocator::copy in
// the original). Free-list is a plain stack of free indices, matching
// HeapAllocator::free_list.
type Backing struct {
	freeList []uint32
	capacity uint32
	inUse    map[uint32]bool
}

// NewBacking creates a Backing heap with room for capacity descriptors.
func NewBacking(capacity uint32) *Backing {
	b := &Backing{
		freeList: make([]uint32, 0, capacity),
		capacity: capacity,
		inUse:    make(map[uint32]bool, capacity),
	}
	for i := uint32(0); i < capacity; i++ {
		b.freeList = append(b.freeList, capacity-1-i)
	}
	return b
}

// Alloc reserves a backing slot and returns its index.
func (b *Backing) Alloc() (uint32, error) {
	if len(b.freeList) == 0 {
		return 0, ErrBackingFull
	}
	idx := b.freeList[len(b.freeList)-1]
	b.freeList = b.freeList[:len(b.freeList)-1]
	b.inUse[idx] = true
	return idx, nil
}

// Free releases a backing slot back to the free list.
func (b *Backing) Free(idx uint32) error {
	if !b.inUse[idx] {
		return ErrInvalidSlot
	}
	delete(b.inUse, idx)
	b.freeList = append(b.freeList, idx)
	return nil
}

// InUse reports how many backing slots are currently allocated.
func (b *Backing) InUse() int {
	return len(b.inUse)
}

// Capacity returns the fixed backing-heap size.
func (b *Backing) Capacity() int {
	return int(b.capacity)
}
