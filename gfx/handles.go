package gfx

import "github.com/embergfx/backend/internal/handle"

// BufferHandle, TextureHandle, ProgramHandle, QueryHandle, and
// WindowHandle are distinct opaque handle types over the same
// internal/handle.Handle representation, so a buffer handle can never be
// passed where a texture handle is expected even though both wrap the
// same 32-bit packed index+generation value (spec §3's "opaque integer
// handles" made type-safe rather than a bare int32 as the original used).

// BufferHandle names a slot in the buffer pool.
type BufferHandle handle.Handle

// TextureHandle names a slot in the texture pool.
type TextureHandle handle.Handle

// ProgramHandle names a slot in the program pool.
type ProgramHandle handle.Handle

// QueryHandle names a slot in the query pool (SPEC_FULL.md's supplemented
// GPU-timestamp query feature, absent from spec.md's own operation list).
type QueryHandle handle.Handle

// WindowHandle names an entry in the window table, which records each
// registered window's hwnd (SPEC_FULL.md's supplemented multiple-swapchain
// feature); no swap chain is attached to an entry.
type WindowHandle handle.Handle

// InvalidBuffer, InvalidTexture, InvalidProgram, InvalidQuery, and
// InvalidWindow are the sentinel "−1" values spec.md's handle model calls
// for: the zero handle.Handle never resolves to a live slot.
const (
	InvalidBuffer  BufferHandle  = BufferHandle(handle.Nil)
	InvalidTexture TextureHandle = TextureHandle(handle.Nil)
	InvalidProgram ProgramHandle = ProgramHandle(handle.Nil)
	InvalidQuery   QueryHandle   = QueryHandle(handle.Nil)
	InvalidWindow  WindowHandle  = WindowHandle(handle.Nil)
)
