// Package immediate implements gfx.Backend with an immediate-submission
// model: every draw or dispatch opens its render/compute pass, records its
// one call, and closes the pass again rather than batching a run of draws
// into one long-lived pass the way backend/cmdlist does. This mirrors the
// original's simpler D3D11-style backend (spec §2/§9): state objects are
// resolved through a cache instead of rebuilt every call (the redesign
// fix for the original's setState bug), and buffers may carry a host-side
// persistent shadow so repeated CPU writes don't round-trip through a real
// map/unmap pair.
package immediate

import (
	"fmt"
	"sync"

	"github.com/embergfx/backend/gfx"
	"github.com/embergfx/backend/internal/descheap"
	"github.com/embergfx/backend/internal/driver"
	"github.com/embergfx/backend/internal/framering"
	"github.com/embergfx/backend/internal/pipeline"
	"github.com/embergfx/backend/internal/shaderx"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

func init() {
	gfx.RegisterBackend(gfx.BackendImmediate, func() gfx.Backend { return &Backend{} })
}

// boundBuffer is a buffer bind pending resolution into a hal.BindGroup at
// the next draw/dispatch.
type boundBuffer struct {
	buf    *nativeBuffer
	offset uint64
	size   uint64
}

// nativeBuffer wraps a hal.Buffer. shadow is the optional persistent
// host-side copy spec §3 reserves for this backend only: when present,
// MapBuffer hands back shadow directly instead of a real hal map, and
// UnmapBuffer writes shadow straight to the device and returns with nothing
// left mapped, closing the original's "flushBuffer left mapped_ptr valid"
// bug at the source.
type nativeBuffer struct {
	device hal.Device
	buf    hal.Buffer
	size   uint64
	shadow []byte
}

func (n *nativeBuffer) Destroy() { n.device.DestroyBuffer(n.buf) }

// nativeTexture wraps a hal.Texture with its creation-time description.
type nativeTexture struct {
	device hal.Device
	tex    hal.Texture
	desc   gfx.TextureDesc
}

func (n *nativeTexture) Destroy() { n.device.DestroyTexture(n.tex) }

// nativeProgram wraps the per-stage compiled shader modules plus the
// vertex-attribute layout createProgram received.
type nativeProgram struct {
	device     hal.Device
	modules    map[shaderx.Stage]hal.ShaderModule
	attributes []gfx.AttributeDesc
	id         uint32
}

func (n *nativeProgram) Destroy() {
	for _, mod := range n.modules {
		n.device.DestroyShaderModule(mod)
	}
}

// Backend is the immediate-mode gfx.Backend implementation.
type Backend struct {
	mu sync.Mutex

	ctx    *driver.Context
	pso    *pipeline.Cache
	ring   *framering.Ring
	states *stateCache

	nextProgramID uint32

	pendingState   gfx.State
	pendingProgram *nativeProgram
	colorTargets   []*nativeTexture
	depthTarget    *nativeTexture
	fbFlags        gfx.FramebufferFlags
	viewport       [4]int32
	scissor        [4]int32
	hasScissor     bool
	pendingClear   *clearRequest

	pendingCBV        boundBuffer
	pendingSRVs       []*nativeTexture
	pendingUAVTexture *nativeTexture
	pendingUAVBuffer  *nativeBuffer

	vertexBuffers map[int]vertexBinding
	indexBuffer   *nativeBuffer
	indexType     gfx.IndexType

	debugDepth int
}

// Name returns "immediate".
func (b *Backend) Name() string { return "immediate" }

// Init constructs the frame ring, the state cache, and stashes the shared
// subsystem bundle.
func (b *Backend) Init(ctx *driver.Context, shared *gfx.Shared) error {
	ring, err := framering.NewRing(ctx.Device(), ctx.Queue())
	if err != nil {
		return fmt.Errorf("immediate: init frame ring: %w", err)
	}
	b.ctx = ctx
	b.pso = shared.PSO
	b.ring = ring
	b.states = newStateCache()
	return nil
}

// Shutdown drains the frame ring.
func (b *Backend) Shutdown() {
	if b.ring != nil {
		_ = b.ring.WaitIdle()
	}
}

// CreateBuffer allocates a hal.Buffer sized per flags. Buffers flagged
// both mappable and persistent additionally get a host-side shadow copy
// (spec §3): the shadow, not a real hal map, backs MapBuffer/UnmapBuffer
// for the lifetime of the buffer.
func (b *Backend) CreateBuffer(size uint64, flags gfx.BufferFlags, data []byte) (gfx.NativeBuffer, error) {
	usage := bufferUsage(flags)
	buf, err := b.ctx.Device().CreateBuffer(&hal.BufferDescriptor{
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("immediate: create buffer: %w", err)
	}

	n := &nativeBuffer{device: b.ctx.Device(), buf: buf, size: size}
	if flags&gfx.BufferMappable != 0 && flags&gfx.BufferPersistent != 0 {
		n.shadow = make([]byte, size)
		if data != nil {
			copy(n.shadow, data)
		}
	}
	if data != nil {
		b.ctx.Queue().WriteBuffer(buf, 0, data)
	}
	return n, nil
}

func (b *Backend) DestroyBuffer(nb gfx.NativeBuffer) {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	b.ring.Current().Release(n)
}

// MapBuffer returns the buffer's persistent shadow if it has one, else
// falls back to a real hal map.
func (b *Backend) MapBuffer(nb gfx.NativeBuffer) ([]byte, error) {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return nil, fmt.Errorf("immediate: map: not an immediate buffer")
	}
	if n.shadow != nil {
		return n.shadow, nil
	}
	return n.buf.Map(0, n.size)
}

// UnmapBuffer flushes a shadowed buffer's contents to the device and
// returns with nothing left mapped. For a non-shadowed buffer it unmaps
// the real hal mapping, same as backend/cmdlist.
func (b *Backend) UnmapBuffer(nb gfx.NativeBuffer) error {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return fmt.Errorf("immediate: unmap: not an immediate buffer")
	}
	if n.shadow != nil {
		b.ctx.Queue().WriteBuffer(n.buf, 0, n.shadow)
		return nil
	}
	n.buf.Unmap()
	return nil
}

// UpdateBuffer writes data at offset, keeping a shadowed buffer's host copy
// in sync with the device.
func (b *Backend) UpdateBuffer(nb gfx.NativeBuffer, data []byte, offset uint64) error {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return fmt.Errorf("immediate: update: not an immediate buffer")
	}
	if n.shadow != nil && offset+uint64(len(data)) <= uint64(len(n.shadow)) {
		copy(n.shadow[offset:], data)
	}
	b.ctx.Queue().WriteBuffer(n.buf, offset, data)
	return nil
}

// CopyBuffer records a GPU-side copy on the current frame's encoder; it is
// submitted with the rest of the frame's work at SwapBuffers.
func (b *Backend) CopyBuffer(dst, src gfx.NativeBuffer, dstOffset, size uint64) error {
	d, ok1 := dst.(*nativeBuffer)
	s, ok2 := src.(*nativeBuffer)
	if !ok1 || !ok2 || d == nil || s == nil {
		return fmt.Errorf("immediate: copy: not immediate buffers")
	}
	frame := b.ring.Current()
	frame.Encoder().CopyBufferToBuffer(s.buf, d.buf, []hal.BufferCopy{{SrcOffset: 0, DstOffset: dstOffset, Size: size}})
	if d.shadow != nil && s.shadow != nil && dstOffset+size <= uint64(len(d.shadow)) && size <= uint64(len(s.shadow)) {
		copy(d.shadow[dstOffset:dstOffset+size], s.shadow[:size])
	}
	return nil
}

// CreateTexture allocates a hal.Texture with the requested mip count and
// uploads the initial data, if any, straight to the queue's own staging
// path.
func (b *Backend) CreateTexture(desc gfx.TextureDesc, data []byte) (gfx.NativeTexture, error) {
	tex, err := b.ctx.Device().CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Name,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: max1(desc.Depth)},
		MipLevelCount: max1(desc.MipLevelCount),
		SampleCount:   1,
		Dimension:     dimensionFor(desc),
		Format:        desc.Format,
		Usage:         textureUsage(desc.Flags),
	})
	if err != nil {
		return nil, fmt.Errorf("immediate: create texture: %w", err)
	}
	if data != nil {
		b.ctx.Queue().WriteTexture(
			&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: hal.Origin3D{}},
			data,
			&hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow(desc), RowsPerImage: desc.Height},
			&hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: max1(desc.Depth)},
		)
	}
	return &nativeTexture{device: b.ctx.Device(), tex: tex, desc: desc}, nil
}

func (b *Backend) DestroyTexture(nt gfx.NativeTexture) {
	n, ok := nt.(*nativeTexture)
	if !ok || n == nil {
		return
	}
	b.ring.Current().Release(n)
}

// CreateProgram records the already-compiled per-stage modules desc
// carries; the hal.RenderPipeline is built lazily on first use.
func (b *Backend) CreateProgram(desc gfx.ProgramDesc) (gfx.NativeProgram, error) {
	b.mu.Lock()
	b.nextProgramID++
	id := b.nextProgramID
	b.mu.Unlock()

	modules := make(map[shaderx.Stage]hal.ShaderModule, len(desc.Modules))
	for stage, mod := range desc.Modules {
		modules[stage] = mod
	}
	return &nativeProgram{device: b.ctx.Device(), modules: modules, attributes: desc.Attributes, id: id}, nil
}

func (b *Backend) DestroyProgram(np gfx.NativeProgram) {
	n, ok := np.(*nativeProgram)
	if !ok || n == nil {
		return
	}
	b.ring.Current().Release(n)
}

// BindVertexBuffer records the vertex-buffer slot for the next draw; unlike
// backend/cmdlist there is no persistent open pass to bind against
// immediately, so the bind is simply remembered until the draw call itself
// opens its pass.
func (b *Backend) BindVertexBuffer(slot int, buf gfx.NativeBuffer, offset, stride uint32) {
	n, ok := buf.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.vertexBuffers == nil {
		b.vertexBuffers = make(map[int]vertexBinding)
	}
	b.vertexBuffers[slot] = vertexBinding{buf: n, offset: offset, stride: stride}
}

// BindIndexBuffer records the active index buffer and its element width.
func (b *Backend) BindIndexBuffer(buf gfx.NativeBuffer, indexType gfx.IndexType) {
	n, ok := buf.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.indexBuffer = n
	b.indexType = indexType
}

// BindUniformBuffer records a CBV bind for the next draw/dispatch.
func (b *Backend) BindUniformBuffer(slot int, buf gfx.NativeBuffer, offset, size uint64) {
	n, ok := buf.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingCBV = boundBuffer{buf: n, offset: offset, size: size}
	_ = slot
}

// BindTextures records the SRV set for the next draw/dispatch.
func (b *Backend) BindTextures(textures []gfx.NativeTexture, offset int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingSRVs = b.pendingSRVs[:0]
	for _, t := range textures {
		if n, ok := t.(*nativeTexture); ok && n != nil {
			b.pendingSRVs = append(b.pendingSRVs, n)
		}
	}
	_ = offset
}

// BindImageTexture binds tex as a UAV-style image for compute dispatch.
func (b *Backend) BindImageTexture(tex gfx.NativeTexture, slot int) {
	n, ok := tex.(*nativeTexture)
	if !ok || n == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingUAVTexture = n
	_ = slot
}

// BindShaderBuffer binds a structured/raw buffer as a UAV.
func (b *Backend) BindShaderBuffer(buf gfx.NativeBuffer, slot int, flags gfx.ShaderBufferFlags) {
	n, ok := buf.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingUAVBuffer = n
	_ = slot
	_ = flags
}

// SetState resolves s through the state cache rather than re-decoding its
// bit fields on every call — the fix for the original's "fresh state
// objects every call" bug (spec redesign flag).
func (b *Backend) SetState(s gfx.State) {
	b.states.getOrCreate(s)
	b.mu.Lock()
	b.pendingState = s
	b.mu.Unlock()
}

// Viewport records the viewport rectangle, applied when the next pass opens.
func (b *Backend) Viewport(x, y, w, h int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = [4]int32{x, y, w, h}
}

// Scissor records the scissor rectangle, applied when the next pass opens.
func (b *Backend) Scissor(x, y, w, h int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scissor = [4]int32{x, y, w, h}
	b.hasScissor = true
}

// UseProgram binds p as the active program for subsequent draws/dispatches.
func (b *Backend) UseProgram(p gfx.NativeProgram) {
	n, ok := p.(*nativeProgram)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingProgram = n
}

// SetFramebuffer binds the given color/depth-stencil attachments.
func (b *Backend) SetFramebuffer(attachments []gfx.NativeTexture, flags gfx.FramebufferFlags) {
	targets := make([]*nativeTexture, 0, len(attachments))
	var depth *nativeTexture
	for _, a := range attachments {
		n, ok := a.(*nativeTexture)
		if !ok || n == nil {
			continue
		}
		if n.desc.Flags&gfx.TextureRenderTarget != 0 && isDepthFormat(n.desc.Format) {
			depth = n
			continue
		}
		targets = append(targets, n)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.colorTargets = targets
	b.depthTarget = depth
	b.fbFlags = flags
}

// Clear opens a pass against the currently bound attachments with a clear
// load op for whichever flags select, then closes it right away — clearing
// takes effect immediately rather than waiting on a following draw.
func (b *Backend) Clear(flags gfx.ClearFlags, color [4]float32, depth float32) {
	b.mu.Lock()
	b.pendingClear = &clearRequest{flags: flags, color: color, depth: depth}
	b.mu.Unlock()

	pass, ok := b.openPass()
	if !ok {
		return
	}
	pass.End()
}

// DrawArrays opens a pass, binds the resolved pipeline and resources,
// issues one non-indexed draw call, and closes the pass — no batching of
// consecutive draws into a shared pass.
func (b *Backend) DrawArrays(offset, count int, topology gfx.PrimitiveTopology) {
	pass, ok := b.prepareDraw(topology)
	if !ok {
		return
	}
	pass.Draw(uint32(count), 1, uint32(offset), 0)
	pass.End()
}

// DrawElements opens a pass, binds the resolved pipeline and resources,
// issues one indexed draw call, and closes the pass.
func (b *Backend) DrawElements(offsetBytes uint32, count int, topology gfx.PrimitiveTopology, indexType gfx.IndexType) {
	pass, ok := b.prepareDraw(topology)
	if !ok {
		return
	}
	stride := uint32(2)
	if indexType == gfx.IndexUInt32 {
		stride = 4
	}
	firstIndex := offsetBytes / stride
	pass.DrawIndexed(uint32(count), 1, firstIndex, 0, 0)
	pass.End()
}

// DrawTriangles opens a pass, issues a non-instanced indexed
// triangle-list draw starting at index 0, and closes the pass (spec
// §4.6's drawTriangles). indexType mirrors the spec's signature; the
// index buffer's element format was already fixed by the preceding
// BindIndexBuffer call.
func (b *Backend) DrawTriangles(indexCount int, indexType gfx.IndexType) {
	b.DrawTrianglesInstanced(indexCount, 1, indexType)
}

// DrawTrianglesInstanced opens a pass, issues an instanced indexed
// triangle-list draw, and closes the pass (spec §4.6's
// drawTrianglesInstanced, exercised by §8's "3 indices × 4 instances"
// scenario).
func (b *Backend) DrawTrianglesInstanced(indexCount, instanceCount int, indexType gfx.IndexType) {
	pass, ok := b.prepareDraw(gfx.PrimitiveTriangleList)
	if !ok {
		return
	}
	pass.DrawIndexed(uint32(indexCount), uint32(instanceCount), 0, 0, 0)
	pass.End()
}

// Dispatch resolves the compute pipeline for the active program, opens a
// compute pass, dispatches once, and closes the pass.
func (b *Backend) Dispatch(x, y, z uint32) {
	b.mu.Lock()
	prog := b.pendingProgram
	b.mu.Unlock()
	if prog == nil {
		return
	}

	mod, ok := prog.modules[shaderx.StageCompute]
	if !ok {
		return
	}

	key := pipeline.ComputeKey{ShaderHash: uint64(prog.id), Program: prog.id}
	pipe, err := b.pso.GetOrCreateCompute(b.ctx.Device(), key, func(device hal.Device) (hal.ComputePipeline, error) {
		return device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  "compute",
			Module: mod,
			Entry:  "main",
		})
	})
	if err != nil {
		b.ctx.Logger().Error("immediate: resolve compute pipeline", "err", err)
		return
	}

	frame := b.ring.Current()
	cpass := frame.Encoder().BeginComputePass(&hal.ComputePassDescriptor{Label: "dispatch"})
	cpass.SetPipeline(pipe)
	b.bindComputeResourceGroups(cpass)
	cpass.Dispatch(x, y, z)
	cpass.End()
}

func (b *Backend) bindComputeResourceGroups(pass hal.ComputePassEncoder) {
	b.mu.Lock()
	srvs := append([]*nativeTexture(nil), b.pendingSRVs...)
	uavTex := b.pendingUAVTexture
	uavBuf := b.pendingUAVBuffer
	b.mu.Unlock()

	if len(srvs) > 0 {
		entries := make([]hal.BindGroupEntry, len(srvs))
		for i, t := range srvs {
			entries[i] = hal.BindGroupEntry{Binding: uint32(i), TextureView: t.tex.CreateView(&hal.TextureViewDescriptor{})}
		}
		if group, err := b.createBindGroup(descheap.SlotSRV, entries, textureBindingKind); err == nil {
			pass.SetBindGroup(descheap.SlotSRV, group, nil)
		}
	}
	if uavTex != nil || uavBuf != nil {
		var entries []hal.BindGroupEntry
		var kinds []hal.BindingKind
		if uavTex != nil {
			entries = append(entries, hal.BindGroupEntry{Binding: 0, TextureView: uavTex.tex.CreateView(&hal.TextureViewDescriptor{})})
			kinds = append(kinds, hal.BindingKindStorageTexture)
		}
		if uavBuf != nil {
			entries = append(entries, hal.BindGroupEntry{Binding: uint32(len(entries)), Buffer: uavBuf.buf, Size: uavBuf.size})
			kinds = append(kinds, hal.BindingKindStorageBuffer)
		}
		if group, err := b.createBindGroupMixed(descheap.SlotUAV, entries, kinds); err == nil {
			pass.SetBindGroup(descheap.SlotUAV, group, nil)
		}
	}
}

// SwapBuffers ends the current frame (submitting its encoder and signaling
// its fence), advances the frame ring, and begins the next frame slot.
func (b *Backend) SwapBuffers() (int, error) {
	retired := b.ring.Index()
	if _, err := b.ring.Advance(); err != nil {
		return 0, fmt.Errorf("immediate: swap buffers: %w", err)
	}
	return retired, nil
}

// WaitFrame blocks until the frame ring slot index has retired. The ring
// has no per-slot wait, so this waits on every submitted slot through
// Ring.WaitIdle, which covers index along with the others.
func (b *Backend) WaitFrame(index int) error {
	_ = index
	return b.ring.WaitIdle()
}

// PushDebugGroup opens a named debug-marker scope on the current frame's
// encoder.
func (b *Backend) PushDebugGroup(name string) {
	b.debugDepth++
	b.ring.Current().Encoder().PushDebugGroup(name)
}

// PopDebugGroup closes the innermost open debug-marker scope.
func (b *Backend) PopDebugGroup() {
	if b.debugDepth == 0 {
		return
	}
	b.debugDepth--
	b.ring.Current().Encoder().PopDebugGroup()
}

// clearRequest stashes the pending Clear call's parameters until openPass
// applies them as the attachments' load ops.
type clearRequest struct {
	flags gfx.ClearFlags
	color [4]float32
	depth float32
}

// vertexBinding is one bound vertex-buffer slot, applied at the top of the
// next draw's pass.
type vertexBinding struct {
	buf    *nativeBuffer
	offset uint32
	stride uint32
}

// openPass opens a fresh render pass against the currently bound
// framebuffer, applying any pending Clear as the attachments' load op.
// Returns ok=false if nothing is bound.
func (b *Backend) openPass() (hal.RenderPassEncoder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.colorTargets) == 0 && b.depthTarget == nil {
		return nil, false
	}

	clear := b.pendingClear
	b.pendingClear = nil

	colorAttachments := make([]hal.RenderPassColorAttachment, len(b.colorTargets))
	for i, t := range b.colorTargets {
		att := hal.RenderPassColorAttachment{
			View:    t.tex.CreateView(&hal.TextureViewDescriptor{}),
			LoadOp:  types.LoadOpLoad,
			StoreOp: types.StoreOpStore,
		}
		if clear != nil && clear.flags&gfx.ClearColor != 0 {
			att.LoadOp = types.LoadOpClear
			att.ClearColor = clear.color
		}
		colorAttachments[i] = att
	}

	var depthAttachment *hal.RenderPassDepthStencilAttachment
	if b.depthTarget != nil {
		da := &hal.RenderPassDepthStencilAttachment{
			View:          b.depthTarget.tex.CreateView(&hal.TextureViewDescriptor{}),
			DepthLoadOp:   types.LoadOpLoad,
			DepthStoreOp:  types.StoreOpStore,
			ReadOnlyDepth: b.fbFlags&gfx.FramebufferReadonlyDepthStencil != 0,
		}
		if clear != nil && clear.flags&gfx.ClearDepth != 0 {
			da.DepthLoadOp = types.LoadOpClear
			da.ClearDepth = clear.depth
		}
		depthAttachment = da
	}

	frame := b.ring.Current()
	pass := frame.Encoder().BeginRenderPass(&hal.RenderPassDescriptor{
		Label:                  "immediate",
		ColorAttachments:       colorAttachments,
		DepthStencilAttachment: depthAttachment,
	})

	if w := b.viewport; w[2] != 0 || w[3] != 0 {
		pass.SetViewport(float32(w[0]), float32(w[1]), float32(w[2]), float32(w[3]), 0, 1)
	}
	if b.hasScissor {
		s := b.scissor
		pass.SetScissorRect(uint32(s[0]), uint32(s[1]), uint32(s[2]), uint32(s[3]))
	}
	for slot, vb := range b.vertexBuffers {
		pass.SetVertexBuffer(uint32(slot), vb.buf.buf, uint64(vb.offset))
	}
	if b.indexBuffer != nil {
		pass.SetIndexBuffer(b.indexBuffer.buf, indexFormat(b.indexType), 0)
	}
	return pass, true
}

// prepareDraw opens the render pass and resolves the PSO for the pending
// state/program/topology/attachment-format tuple, using the cached state
// tuple rather than recomputing it from s.
func (b *Backend) prepareDraw(topology gfx.PrimitiveTopology) (hal.RenderPassEncoder, bool) {
	pass, ok := b.openPass()
	if !ok {
		return nil, false
	}

	b.mu.Lock()
	prog := b.pendingProgram
	state := b.pendingState
	colorFormat := gputypes.TextureFormatRGBA8Unorm
	if len(b.colorTargets) > 0 {
		colorFormat = b.colorTargets[0].desc.Format
	}
	depthFormat := gputypes.TextureFormat(0)
	if b.depthTarget != nil {
		depthFormat = b.depthTarget.desc.Format
	}
	b.mu.Unlock()

	if prog == nil {
		pass.End()
		return nil, false
	}

	tuple := b.states.getOrCreate(state).tuple
	key := pipeline.RenderKey{
		State:       tuple,
		Program:     prog.id,
		Attributes:  attrsToKey(prog.attributes),
		ColorFormat: colorFormat,
		DepthFormat: depthFormat,
		Topology:    topologyToNative(topology),
	}
	pipe, err := b.pso.GetOrCreateRender(b.ctx.Device(), key, func(device hal.Device) (hal.RenderPipeline, error) {
		return device.CreateRenderPipeline(renderPipelineDescriptor(prog, state, topology, colorFormat, depthFormat))
	})
	if err != nil {
		b.ctx.Logger().Error("immediate: resolve render pipeline", "err", err)
		pass.End()
		return nil, false
	}

	pass.SetPipeline(pipe)
	pass.SetStencilReference(uint32(state.StencilRef()))
	b.bindResourceGroups(pass)
	return pass, true
}

const textureBindingKind = hal.BindingKindTexture

var uniformBindingKind = []hal.BindingKind{hal.BindingKindUniformBuffer}

// bindResourceGroups builds and binds a hal.BindGroup per non-empty
// descriptor-heap slot from whatever was last bound through
// BindUniformBuffer/BindTextures/BindImageTexture/BindShaderBuffer.
func (b *Backend) bindResourceGroups(pass hal.RenderPassEncoder) {
	b.mu.Lock()
	cbv := b.pendingCBV
	srvs := append([]*nativeTexture(nil), b.pendingSRVs...)
	uavTex := b.pendingUAVTexture
	uavBuf := b.pendingUAVBuffer
	b.mu.Unlock()

	if cbv.buf != nil {
		entries := []hal.BindGroupEntry{{Binding: 0, Buffer: cbv.buf.buf, Offset: cbv.offset, Size: cbv.size}}
		if group, err := b.createBindGroupMixed(descheap.SlotCBV, entries, uniformBindingKind); err == nil {
			pass.SetBindGroup(descheap.SlotCBV, group, nil)
		}
	}
	if len(srvs) > 0 {
		entries := make([]hal.BindGroupEntry, len(srvs))
		for i, t := range srvs {
			entries[i] = hal.BindGroupEntry{Binding: uint32(i), TextureView: t.tex.CreateView(&hal.TextureViewDescriptor{})}
		}
		if group, err := b.createBindGroup(descheap.SlotSRV, entries, textureBindingKind); err == nil {
			pass.SetBindGroup(descheap.SlotSRV, group, nil)
		}
	}
	if uavTex != nil || uavBuf != nil {
		var entries []hal.BindGroupEntry
		var kinds []hal.BindingKind
		if uavTex != nil {
			entries = append(entries, hal.BindGroupEntry{Binding: 0, TextureView: uavTex.tex.CreateView(&hal.TextureViewDescriptor{})})
			kinds = append(kinds, hal.BindingKindStorageTexture)
		}
		if uavBuf != nil {
			entries = append(entries, hal.BindGroupEntry{Binding: uint32(len(entries)), Buffer: uavBuf.buf, Size: uavBuf.size})
			kinds = append(kinds, hal.BindingKindStorageBuffer)
		}
		if group, err := b.createBindGroupMixed(descheap.SlotUAV, entries, kinds); err == nil {
			pass.SetBindGroup(descheap.SlotUAV, group, nil)
		}
	}
}

func (b *Backend) createBindGroup(group uint32, entries []hal.BindGroupEntry, kind hal.BindingKind) (hal.BindGroup, error) {
	kinds := make([]hal.BindingKind, len(entries))
	for i := range kinds {
		kinds[i] = kind
	}
	return b.createBindGroupMixed(group, entries, kinds)
}

// createBindGroupMixed builds the hal.BindGroupLayout matching entries'
// bindings/kinds one-for-one, then the hal.BindGroup itself, deferring
// destruction of both until the frame that used them retires.
func (b *Backend) createBindGroupMixed(group uint32, entries []hal.BindGroupEntry, kinds []hal.BindingKind) (hal.BindGroup, error) {
	layoutEntries := make([]hal.BindGroupLayoutEntry, len(entries))
	for i, e := range entries {
		layoutEntries[i] = hal.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Kind:       kinds[i],
			Visibility: hal.ShaderStageVertex | hal.ShaderStageFragment | hal.ShaderStageCompute,
		}
	}
	layout, err := b.ctx.Device().CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Entries: layoutEntries})
	if err != nil {
		return nil, fmt.Errorf("immediate: create bind group layout for group %d: %w", group, err)
	}
	bindGroup, err := b.ctx.Device().CreateBindGroup(&hal.BindGroupDescriptor{Layout: layout, Entries: entries})
	if err != nil {
		b.ctx.Device().DestroyBindGroupLayout(layout)
		return nil, fmt.Errorf("immediate: create bind group for group %d: %w", group, err)
	}
	b.ring.Current().Release(&transientBindGroup{device: b.ctx.Device(), layout: layout, group: bindGroup})
	return bindGroup, nil
}

// transientBindGroup defers destruction of a per-draw bind group and its
// layout until the frame that used them has retired.
type transientBindGroup struct {
	device hal.Device
	layout hal.BindGroupLayout
	group  hal.BindGroup
}

func (t *transientBindGroup) Destroy() {
	t.device.DestroyBindGroup(t.group)
	t.device.DestroyBindGroupLayout(t.layout)
}
