package gfx

import (
	"fmt"
	"sync"

	"github.com/embergfx/backend/internal/descheap"
	"github.com/embergfx/backend/internal/driver"
	"github.com/embergfx/backend/internal/pipeline"
	"github.com/embergfx/backend/internal/restate"
	"github.com/embergfx/backend/internal/shaderx"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Shared bundles the subsystems System owns but a Backend needs direct
// access to in order to record commands: the PSO cache (so a draw call's
// SetState resolves to a cached hal.RenderPipeline instead of building one
// per call), the descriptor-heap allocators, and the state tracker (so the
// backend can emit a barrier when a resource's restate.State changes).
// System constructs these once in Init and hands the same instances to
// whichever Backend it selects, so both back-ends would share one cache
// and heap if a caller ever ran them side by side.
type Shared struct {
	PSO      *pipeline.Cache
	State    *restate.Tracker
	Backing  *descheap.Backing
	Ring     *descheap.Ring
	Samplers *descheap.SamplerCache
}

// BackendKind names a registered backend, mirroring backend/backend.go's
// RenderBackend.Name() but as a typed enum since gfx only ever has the two
// the spec names.
type BackendKind int

const (
	// BackendAuto lets Init pick the highest-priority registered backend.
	BackendAuto BackendKind = iota
	// BackendCmdlist is the explicit command-list back-end (backend/cmdlist).
	BackendCmdlist
	// BackendImmediate is the immediate-mode back-end (backend/immediate).
	BackendImmediate
)

func (k BackendKind) String() string {
	switch k {
	case BackendCmdlist:
		return "cmdlist"
	case BackendImmediate:
		return "immediate"
	default:
		return "auto"
	}
}

// NativeBuffer, NativeTexture, and NativeProgram are the opaque handles a
// Backend hands back to System; System never inspects their contents, only
// threads them back into later Backend calls, the same way gpucore.GPUAdapter
// treats its resource IDs as opaque to the caller.
type NativeBuffer any
type NativeTexture any
type NativeProgram any

// TextureDesc describes a native texture creation request, the Backend-facing
// counterpart of the createTexture façade call.
type TextureDesc struct {
	Width, Height, Depth uint32
	MipLevelCount        uint32
	Format               gputypes.TextureFormat
	Flags                TextureFlags
	Name                 string
}

// ProgramDesc describes a native program creation request: one compiled
// module per stage present, plus the vertex-attribute layout.
type ProgramDesc struct {
	Modules    map[shaderx.Stage]hal.ShaderModule
	Attributes []AttributeDesc
	Name       string
}

// AttributeDesc mirrors spec §3's per-vertex-attribute description.
type AttributeDesc struct {
	Location   uint32
	Offset     uint32
	Components uint32
	Type       gputypes.VertexFormat
	Instanced  bool
}

// Backend is the contract both backend/cmdlist and backend/immediate
// satisfy; System owns handle pools, flag semantics, and PSO-key/state
// bookkeeping and delegates every hal-touching operation to whichever
// Backend Init selected — spec §9's "two modules behind one API trait"
// design note, resolved with build-time-agnostic runtime selection via a
// registry (grounded on backend/backend.go + backend/registry.go) rather
// than a Go build tag per back-end, since both back-ends here share the
// same hal dependency and neither needs to be compiled out.
type Backend interface {
	// Name identifies the backend ("cmdlist" or "immediate").
	Name() string

	// Init receives the shared driver context and subsystem bundle. Called
	// once from gfx.Init.
	Init(ctx *driver.Context, shared *Shared) error

	// Shutdown drains all frames and releases device-owned objects. Must
	// be safe to call after a failed Init.
	Shutdown()

	CreateBuffer(size uint64, flags BufferFlags, data []byte) (NativeBuffer, error)
	DestroyBuffer(NativeBuffer)
	MapBuffer(b NativeBuffer) ([]byte, error)
	UnmapBuffer(b NativeBuffer) error
	UpdateBuffer(b NativeBuffer, data []byte, offset uint64) error
	CopyBuffer(dst, src NativeBuffer, dstOffset, size uint64) error

	CreateTexture(desc TextureDesc, data []byte) (NativeTexture, error)
	DestroyTexture(NativeTexture)

	CreateProgram(desc ProgramDesc) (NativeProgram, error)
	DestroyProgram(NativeProgram)

	BindVertexBuffer(slot int, buf NativeBuffer, offset, stride uint32)
	BindIndexBuffer(buf NativeBuffer, indexType IndexType)
	BindUniformBuffer(slot int, buf NativeBuffer, offset, size uint64)
	BindTextures(textures []NativeTexture, offset int)
	BindImageTexture(tex NativeTexture, slot int)
	BindShaderBuffer(buf NativeBuffer, slot int, flags ShaderBufferFlags)

	SetState(s State)
	Viewport(x, y, w, h int32)
	Scissor(x, y, w, h int32)
	UseProgram(p NativeProgram)
	SetFramebuffer(attachments []NativeTexture, flags FramebufferFlags)
	Clear(flags ClearFlags, color [4]float32, depth float32)

	DrawArrays(offset, count int, topology PrimitiveTopology)
	DrawElements(offsetBytes uint32, count int, topology PrimitiveTopology, indexType IndexType)
	DrawTriangles(indexCount int, indexType IndexType)
	DrawTrianglesInstanced(indexCount, instanceCount int, indexType IndexType)
	Dispatch(x, y, z uint32)

	SwapBuffers() (retiredFrameIndex int, err error)
	WaitFrame(index int) error

	PushDebugGroup(name string)
	PopDebugGroup()
}

// BackendFactory creates a fresh, uninitialized Backend instance.
type BackendFactory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[BackendKind]BackendFactory)
	// priority mirrors backend/registry.go's backendPriority: first
	// available wins when BackendAuto is requested. The command-list
	// back-end is preferred as the "harder, more capable" of the two
	// (spec §2's own line-budget note calls it the harder back-end).
	priority = []BackendKind{BackendCmdlist, BackendImmediate}
)

// RegisterBackend registers a backend factory under kind. Called from each
// backend package's init().
func RegisterBackend(kind BackendKind, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[kind] = factory
}

// AvailableBackends lists every registered backend kind.
func AvailableBackends() []BackendKind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]BackendKind, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	return out
}

func resolveBackend(kind BackendKind) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if kind != BackendAuto {
		factory, ok := backends[kind]
		if !ok {
			return nil, fmt.Errorf("%w: backend %s is not registered", ErrInitFailed, kind)
		}
		return factory(), nil
	}

	for _, k := range priority {
		if factory, ok := backends[k]; ok {
			return factory(), nil
		}
	}
	return nil, fmt.Errorf("%w: no backend registered", ErrInitFailed)
}
