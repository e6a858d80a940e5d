package gfx

import "github.com/embergfx/backend/internal/restate"

// bufferResource is the metadata a BufferHandle's slab slot holds: the
// native object plus everything spec §3's Buffer entry names.
type bufferResource struct {
	native     NativeBuffer
	size       uint64
	flags      BufferFlags
	heapID     uint32 // backing-heap descriptor slot for the buffer's SRV
	stateID    uint32 // key into the restate.Tracker
	mapped     []byte // non-nil while a Map is outstanding
	mappedOff  uint64
	persistent []byte // host-side shadow for the immediate-mode back-end
	name       string
}

// textureResource is the metadata a TextureHandle's slab slot holds.
type textureResource struct {
	native  NativeTexture
	width   uint32
	height  uint32
	depth   uint32
	mips    uint32
	flags   TextureFlags
	heapID  uint32
	stateID uint32
	name    string
}

// programResource is the metadata a ProgramHandle's slab slot holds.
type programResource struct {
	native     NativeProgram
	attributes []AttributeDesc
	attrHash   uint32
	name       string
}

// queryResource backs the supplemented GPU-timestamp query pool
// (SPEC_FULL.md's "Query pools" addition, absent from spec.md's own
// operation table).
type queryResource struct {
	active bool
	result uint64
	ready  bool
}

// stateIDAllocator hands out monotonically increasing tracker keys so buffer
// and texture resources never collide in the shared restate.Tracker.
type stateIDAllocator struct {
	next uint32
}

func (a *stateIDAllocator) alloc() uint32 {
	a.next++
	return a.next
}

// mipCount computes 1 for a no-mips texture, otherwise
// 1 + floor(log2(max(w,h,d))), matching spec §8's boundary-behavior clause.
func mipCount(w, h, d uint32, flags TextureFlags) uint32 {
	if flags&TextureNoMips != 0 {
		return 1
	}
	m := w
	if h > m {
		m = h
	}
	if d > m {
		m = d
	}
	if m <= 1 {
		return 1
	}
	levels := uint32(1)
	for m > 1 {
		m >>= 1
		levels++
	}
	return levels
}

// defaultState is restate.StateCommon, the state every freshly created
// resource starts in before its first transition.
const defaultState = restate.StateCommon
