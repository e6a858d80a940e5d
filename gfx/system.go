package gfx

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/embergfx/backend/internal/capture"
	"github.com/embergfx/backend/internal/descheap"
	"github.com/embergfx/backend/internal/driver"
	"github.com/embergfx/backend/internal/handle"
	"github.com/embergfx/backend/internal/pipeline"
	"github.com/embergfx/backend/internal/restate"
	"github.com/embergfx/backend/internal/shaderx"
	"github.com/gogpu/wgpu/hal"
)

// maxHandles is the slab capacity for every resource pool. The original
// used a compile-time MAX_COUNT per pool family; 65536 comfortably covers
// any real application while keeping the 24-bit index field (16.7M slots)
// far from exhausted.
const maxHandles = 65536

// windowRingDepth is the shader-visible descriptor ring's window count,
// matching the frame-ring depth (spec §4.3's R=3).
const windowRingDepth = 3

// System is the process-wide façade context Init returns: everything a
// gfx operation needs, replacing the singleton the original assumed
// (spec §9's "global mutable state" design note).
//
// System asserts that mutating calls happen on the goroutine that created
// it; see assertRenderThread. Handle allocation (the alloc*Handle family)
// is exempt. Destroy, which frees a handle's slot, asserts like the rest,
// so no deallocation path crosses goroutines.
type System struct {
	renderGoroutine int64 // set from a per-goroutine id surrogate; see threadguard.go
	ctx             *driver.Context
	backend         Backend
	flags           InitFlags
	capture         capture.Handle

	buffers  *handle.Pool[bufferResource]
	textures *handle.Pool[textureResource]
	programs *handle.Pool[programResource]
	queries  *handle.Pool[queryResource]
	windows  *handle.Pool[windowState]

	backing *descheap.Backing
	ring    *descheap.Ring
	samplers *descheap.SamplerCache

	pso     *pipeline.Cache
	state   *restate.Tracker
	ids     stateIDAllocator
	shaders *shaderx.Compiler

	mu           sync.Mutex // guards currentWin / debug-group depth, not the hot draw path
	currentState State
	currentProg  ProgramHandle
	debugDepth   int
	currentWin   WindowHandle

	shutdown atomic.Bool
}

// windowState backs a WindowHandle (SPEC_FULL.md's supplemented multiple-
// swapchain feature). It holds only the window's hwnd: no swap chain is
// created for a window, and System only records which window is current.
type windowState struct {
	hwnd uintptr
}

// Init performs the one-time setup spec §6's `init(hwnd, flags)` describes:
// selects a backend, builds the driver context, and constructs every
// internal subsystem the façade needs. No partial state survives a failed
// Init (spec §7's *init error* clause) — on any failure every already
// constructed piece is torn down before returning.
func Init(device hal.Device, queue hal.Queue, info driver.Info, hwnd uintptr, flags InitFlags) (*System, error) {
	ctx, err := driver.NewContext(device, queue, info, nil, flags.Debug)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	ctx.SetLogger(Logger())

	backend, err := resolveBackend(flags.Backend)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}

	s := &System{
		renderGoroutine: currentGoroutineID(),
		ctx:             ctx,
		backend:         backend,
		flags:           flags,
		capture:         capture.Probe(flags.LoadCaptureTool),
		buffers:         handle.New[bufferResource](maxHandles),
		textures:        handle.New[textureResource](maxHandles),
		programs:        handle.New[programResource](maxHandles),
		queries:         handle.New[queryResource](maxHandles),
		windows:         handle.New[windowState](256),
		backing:         descheap.NewBacking(4096),
		ring:            descheap.NewRing(windowRingDepth, 4096),
		samplers:        descheap.NewSamplerCache(),
		pso:             pipeline.New(),
		state:           restate.New(),
		shaders:         shaderx.New(device),
	}

	shared := &Shared{PSO: s.pso, State: s.state, Backing: s.backing, Ring: s.ring, Samplers: s.samplers}
	if err := backend.Init(ctx, shared); err != nil {
		backend.Shutdown()
		ctx.Destroy()
		return nil, fmt.Errorf("%w: backend init: %v", ErrInitFailed, err)
	}

	winHandle, err := s.windows.Alloc(windowState{hwnd: hwnd})
	if err != nil {
		backend.Shutdown()
		ctx.Destroy()
		return nil, fmt.Errorf("%w: register initial window: %v", ErrInitFailed, err)
	}
	s.currentWin = WindowHandle(winHandle)

	return s, nil
}

// Shutdown drains all in-flight frames and releases the backend's device
// objects. Must be idempotent: a second call is a no-op.
func (s *System) Shutdown() {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	s.backend.Shutdown()
	s.ctx.Destroy()
	s.capture.Close()
}

// Context exposes the underlying driver context for backend-package tests
// and for callers that need direct HAL access (mirrors gogpu/gg's own
// SetDeviceProvider escape hatch).
func (s *System) Context() *driver.Context { return s.ctx }
