package gfx

import "errors"

// Sentinel errors returned across the façade, matching the sentinel +
// %w-wrapping style in backend/native/pipeline_cache_core.go.
var (
	// ErrInitFailed covers driver-context creation, backend selection, and
	// backend setup failure during Init; no partial state survives a
	// failed Init (spec §7).
	ErrInitFailed = errors.New("gfx: init failed")

	// ErrNotInitialized names a call through a nil or already-shut-down
	// System. No System method checks for that case, so none returns it.
	ErrNotInitialized = errors.New("gfx: system not initialized")

	// ErrWrongThread is the panic payload when a renderer-thread-only
	// operation is called from a goroutine other than the one that called
	// Init (spec §5's GetCurrentThreadId() assertion).
	ErrWrongThread = errors.New("gfx: operation called off the renderer thread")

	// ErrInvalidHandle is returned when an operation is given a handle
	// that does not resolve to a live slot.
	ErrInvalidHandle = errors.New("gfx: invalid handle")

	// ErrBufferNotMapped is returned by FlushBuffer/Unmap when the buffer
	// has no active mapping, including a second FlushBuffer or Unmap after
	// the first one released it (Open Question 1's strict-unmap resolution).
	ErrBufferNotMapped = errors.New("gfx: buffer is not mapped")

	// ErrUnsupportedFormat is returned by loadTexture when the container
	// header does not match any recognized format (spec §4.8).
	ErrUnsupportedFormat = errors.New("gfx: unsupported image container format")

	// ErrShaderBuild names a parse/link/cross-compile/native-compile
	// failure during createProgram (spec §7). CreateProgram reports such a
	// failure through its own return values; no System method returns
	// this error.
	ErrShaderBuild = errors.New("gfx: shader build failed")

	// ErrScratchOverflow names a frame's upload arena being unable to
	// satisfy a request. Uploads go through the backends' queue write path
	// rather than the arena, and no System method returns this error.
	ErrScratchOverflow = errors.New("gfx: frame scratch arena exceeded")

	// ErrNoWindow is returned by SetCurrentWindow when the given handle
	// does not resolve to a registered window.
	ErrNoWindow = errors.New("gfx: no current window")
)
