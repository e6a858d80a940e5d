package framering

import "errors"

// ScratchSize is the fixed size of each frame's upload/scratch arena (spec
// §4.3), matching SCRATCH_BUFFER_SIZE in the original.
const ScratchSize = 4 * 1024 * 1024

// ErrArenaExhausted is returned by Arena.Alloc when the requested size does
// not fit in whatever space remains in the current frame's arena.
var ErrArenaExhausted = errors.New("framering: scratch arena exhausted")

// Arena is a bump allocator over a single frame's scratch/upload buffer. It
// never frees individual allocations; the whole arena resets at once when
// the frame comes back around the ring (Frame.Begin), because by then the
// GPU is known to have finished reading every allocation made from it last
// time.
type Arena struct {
	data   []byte
	offset int
}

// NewArena creates an Arena of the given size, normally ScratchSize.
func NewArena(size int) *Arena {
	return &Arena{data: make([]byte, size)}
}

// Alloc reserves size bytes aligned to align (align must be a power of two)
// and returns a slice viewing that region plus its byte offset from the
// arena's base, for callers that need to compute a GPU virtual address.
func (a *Arena) Alloc(size int, align int) ([]byte, int, error) {
	aligned := (a.offset + align - 1) &^ (align - 1)
	if aligned+size > len(a.data) {
		return nil, 0, ErrArenaExhausted
	}
	a.offset = aligned + size
	return a.data[aligned : aligned+size], aligned, nil
}

// Reset rewinds the bump pointer to the start of the arena, reclaiming all
// prior allocations at once.
func (a *Arena) Reset() {
	a.offset = 0
}

// Used returns how many bytes of the arena are currently allocated.
func (a *Arena) Used() int {
	return a.offset
}

// Cap returns the arena's total capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.data)
}
