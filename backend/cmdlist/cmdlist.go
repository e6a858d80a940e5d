// Package cmdlist implements gfx.Backend with an explicit command-list
// recording model: every draw/dispatch/bind call records into the current
// frame's hal.CommandEncoder, and nothing reaches the GPU until SwapBuffers
// submits the encoder and advances the frame ring. This mirrors the
// original's D3D12-style command-list backend (spec §2/§9), adapted from
// backend/native/adapter.go's HALAdapter onto this repo's gfx.Backend
// contract instead of gpucore.GPUAdapter.
package cmdlist

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

// boundBuffer is a buffer bind pending resolution into a hal.BindGroup at
// the next draw/dispatch.
type boundBuffer struct {
	buf    *nativeBuffer
	offset uint64
	size   uint64
}

func init() {
	gfx.RegisterBackend(gfx.BackendCmdlist, func() gfx.Backend { return &Backend{} })
}

// nativeBuffer wraps a hal.Buffer with the metadata recording needs. It
// implements framering.Releasable so Destroy enqueues it onto the frame
// ring's release list instead of freeing it the moment gfx.System calls
// DestroyBuffer — spec §3's destroy invariant: "the native object survives
// until the frame that last referenced it has been retired."
type nativeBuffer struct {
	device hal.Device
	buf    hal.Buffer
	size   uint64
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
// vertex-attribute layout createProgram received; the render pipeline
// itself is built lazily at draw time, keyed on (program, state,
// attributes, topology, attachment formats) through internal/pipeline.
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

// Backend is the command-list gfx.Backend implementation.
type Backend struct {
	mu sync.Mutex

	ctx  *driver.Context
	pso  *pipeline.Cache
	ring *framering.Ring

	nextProgramID uint32

	// Draw-time state accumulated by SetState/UseProgram/SetFramebuffer/
	// Viewport/Scissor between draw calls; cmdlist has no explicit
	// BeginRenderPass in the gfx.Backend surface (spec §4.6 folds it into
	// SetFramebuffer/Clear), so a pass is (re)opened lazily on the next
	// draw call and closed the moment the framebuffer or program changes,
	// or at SwapBuffers.
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

	pass       hal.RenderPassEncoder
	passOpen   bool
	debugDepth int
}

// Name returns "cmdlist".
func (b *Backend) Name() string { return "cmdlist" }

// Init constructs the frame ring and stashes the shared subsystem bundle.
func (b *Backend) Init(ctx *driver.Context, shared *gfx.Shared) error {
	ring, err := framering.NewRing(ctx.Device(), ctx.Queue())
	if err != nil {
		return fmt.Errorf("cmdlist: init frame ring: %w", err)
	}
	b.ctx = ctx
	b.pso = shared.PSO
	b.ring = ring
	return nil
}

// Shutdown drains the frame ring. Spec §5's shutdown contract: "drain all
// frames (wait all fences) before releasing device objects."
func (b *Backend) Shutdown() {
	b.endPass()
	if b.ring != nil {
		_ = b.ring.WaitIdle()
	}
}

// CreateBuffer allocates a hal.Buffer sized per flags (spec §4.6). Mappable
// buffers request a host-visible heap; SHADER_BUFFER-flagged buffers are
// expected to already be 16-byte aligned by the caller (gfx.System rounds
// this up before calling in).
func (b *Backend) CreateBuffer(size uint64, flags gfx.BufferFlags, data []byte) (gfx.NativeBuffer, error) {
	usage := bufferUsage(flags)
	buf, err := b.ctx.Device().CreateBuffer(&hal.BufferDescriptor{
		Size:             size,
		Usage:            usage,
		MappedAtCreation: data != nil,
	})
	if err != nil {
		return nil, fmt.Errorf("cmdlist: create buffer: %w", err)
	}
	if data != nil {
		b.ctx.Queue().WriteBuffer(buf, 0, data)
	}
	return &nativeBuffer{device: b.ctx.Device(), buf: buf, size: size}, nil
}

func (b *Backend) DestroyBuffer(nb gfx.NativeBuffer) {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	b.ring.Current().Release(n)
}

func (b *Backend) MapBuffer(nb gfx.NativeBuffer) ([]byte, error) {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return nil, fmt.Errorf("cmdlist: map: not a cmdlist buffer")
	}
	return n.buf.Map(0, n.size)
}

func (b *Backend) UnmapBuffer(nb gfx.NativeBuffer) error {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return fmt.Errorf("cmdlist: unmap: not a cmdlist buffer")
	}
	n.buf.Unmap()
	return nil
}

func (b *Backend) UpdateBuffer(nb gfx.NativeBuffer, data []byte, offset uint64) error {
	n, ok := nb.(*nativeBuffer)
	if !ok || n == nil {
		return fmt.Errorf("cmdlist: update: not a cmdlist buffer")
	}
	b.ctx.Queue().WriteBuffer(n.buf, offset, data)
	return nil
}

// CopyBuffer records a GPU-side copy on the current frame's encoder
// (spec §4.6's copy). The caller (gfx.System) has already validated the
// byte range fits within dst.
func (b *Backend) CopyBuffer(dst, src gfx.NativeBuffer, dstOffset, size uint64) error {
	d, ok1 := dst.(*nativeBuffer)
	s, ok2 := src.(*nativeBuffer)
	if !ok1 || !ok2 || d == nil || s == nil {
		return fmt.Errorf("cmdlist: copy: not cmdlist buffers")
	}
	frame := b.ring.Current()
	frame.Encoder().CopyBufferToBuffer(s.buf, d.buf, []hal.BufferCopy{{SrcOffset: 0, DstOffset: dstOffset, Size: size}})
	return nil
}

// CreateTexture allocates a hal.Texture with the requested mip count
// (spec §4.6/§4.8). If data is non-nil it's the flattened mip chain
// already generated by gfx.System (via internal/mipgen or a DDS blob). It
// is written with one queue WriteTexture call targeting mip level 0 only;
// the remaining levels in data are not uploaded. The upload goes straight
// to the queue's write path, not through the frame's scratch arena, since
// hal's Queue already owns its own internal staging ring.
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
		return nil, fmt.Errorf("cmdlist: create texture: %w", err)
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

// CreateProgram records the already-compiled per-stage modules desc carries
// (gfx.System compiled them through internal/shaderx before calling in);
// the actual hal.RenderPipeline is built lazily, on first use, from the
// (program, state, topology, attachment-format) tuple via internal/pipeline.
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

// BindVertexBuffer records a vertex-buffer bind on the open render pass,
// opening one against the pending framebuffer if none is open yet.
func (b *Backend) BindVertexBuffer(slot int, buf gfx.NativeBuffer, offset, stride uint32) {
	n, ok := buf.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	pass, ok := b.ensurePass()
	if !ok {
		return
	}
	pass.SetVertexBuffer(uint32(slot), n.buf, uint64(offset))
}

// BindIndexBuffer records the active index buffer and its element width.
func (b *Backend) BindIndexBuffer(buf gfx.NativeBuffer, indexType gfx.IndexType) {
	n, ok := buf.(*nativeBuffer)
	if !ok || n == nil {
		return
	}
	pass, ok := b.ensurePass()
	if !ok {
		return
	}
	pass.SetIndexBuffer(n.buf, indexFormat(indexType), 0)
}

// BindUniformBuffer records a CBV bind at root parameter slot (spec §4.6's
// bindUniformBuffer table entry). The bind group is resolved lazily at the
// next draw/dispatch, against whatever pipeline layout that call's program
// turns out to need — spec §4.6's "invalid buffer binds a null address" is
// satisfied by simply not adding an entry, since gfx.System never passes a
// zero NativeBuffer here for a live draw.
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

// BindTextures records the SRV set for the next draw/dispatch (spec
// §4.6's bindTextures). Resource-state transitions to generic-read are the
// state tracker's responsibility at the gfx.System layer; hal's own usage
// tracking emits the actual barrier.
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

// BindImageTexture binds tex as a UAV-style image at slot, used by compute
// dispatch.
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

// BindShaderBuffer binds a structured/raw buffer as an SRV or UAV per
// flags.
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

// SetState remembers the packed state tuple for the next PSO resolution;
// the actual pipeline lookup/build happens lazily at draw time (spec
// §4.5).
func (b *Backend) SetState(s gfx.State) {
	b.mu.Lock()
	b.pendingState = s
	b.mu.Unlock()
}

// Viewport records the viewport rectangle, applied to the render pass on
// the next draw (or immediately, if a pass is already open).
func (b *Backend) Viewport(x, y, w, h int32) {
	b.mu.Lock()
	b.viewport = [4]int32{x, y, w, h}
	b.mu.Unlock()
	if b.passOpen {
		b.pass.SetViewport(float32(x), float32(y), float32(w), float32(h), 0, 1)
	}
}

// Scissor records the scissor rectangle and applies it to the open pass
// and to every pass opened after it; the current State's ScissorTest bit
// is not consulted.
func (b *Backend) Scissor(x, y, w, h int32) {
	b.mu.Lock()
	b.scissor = [4]int32{x, y, w, h}
	b.hasScissor = true
	b.mu.Unlock()
	if b.passOpen {
		b.pass.SetScissorRect(uint32(x), uint32(y), uint32(w), uint32(h))
	}
}

// UseProgram binds p as the active program for subsequent draws/dispatches.
// Changing programs between draws closes any open render pass, since the
// PSO it resolves to may target a different pipeline layout.
func (b *Backend) UseProgram(p gfx.NativeProgram) {
	n, ok := p.(*nativeProgram)
	if !ok {
		return
	}
	b.endPass()
	b.mu.Lock()
	b.pendingProgram = n
	b.mu.Unlock()
}

// SetFramebuffer binds the given color/depth-stencil attachments, closing
// any render pass open against the previous set (spec §4.6's
// setFramebuffer). A nil or empty attachments slice means "no color or
// depth targets this pass"; no window back buffer is bound in its place.
func (b *Backend) SetFramebuffer(attachments []gfx.NativeTexture, flags gfx.FramebufferFlags) {
	b.endPass()

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
	b.colorTargets = targets
	b.depthTarget = depth
	b.fbFlags = flags
	b.mu.Unlock()
}

// Clear clears the currently bound attachments per flag bits (spec §4.6's
// clear). Implemented by closing any open render pass and opening a new
// one with load-op Clear for whichever attachments flags selects; the new
// pass stays open for the draws that follow.
func (b *Backend) Clear(flags gfx.ClearFlags, color [4]float32, depth float32) {
	b.mu.Lock()
	b.pendingClear = &clearRequest{flags: flags, color: color, depth: depth}
	b.mu.Unlock()
	b.endPass()    // the clear needs a fresh pass with its own load ops
	b.ensurePass() // record the clear even if no draw follows
}

// DrawArrays issues a non-indexed draw call.
func (b *Backend) DrawArrays(offset, count int, topology gfx.PrimitiveTopology) {
	pass, pipe, ok := b.prepareDraw(topology)
	if !ok {
		return
	}
	_ = pipe
	pass.Draw(uint32(count), 1, uint32(offset), 0)
}

// DrawElements issues an indexed draw call. offsetBytes is converted to an
// element offset by the caller's index type (spec §4.6's drawElements).
func (b *Backend) DrawElements(offsetBytes uint32, count int, topology gfx.PrimitiveTopology, indexType gfx.IndexType) {
	pass, pipe, ok := b.prepareDraw(topology)
	if !ok {
		return
	}
	_ = pipe
	stride := uint32(2)
	if indexType == gfx.IndexUInt32 {
		stride = 4
	}
	firstIndex := offsetBytes / stride
	pass.DrawIndexed(uint32(count), 1, firstIndex, 0, 0)
}

// DrawTriangles issues a non-instanced, triangle-list-topology indexed
// draw starting at index 0 (spec §4.6's drawTriangles; the original
// forwards it straight into drawTrianglesInstanced with an instance
// count of 1, gpu_dx12.cpp:2084-2086). indexType mirrors the spec's
// signature; the index buffer's element format was already fixed by the
// preceding BindIndexBuffer call.
func (b *Backend) DrawTriangles(indexCount int, indexType gfx.IndexType) {
	b.DrawTrianglesInstanced(indexCount, 1, indexType)
}

// DrawTrianglesInstanced issues an instanced, triangle-list-topology
// indexed draw (spec §4.6's drawTrianglesInstanced, gpu_dx12.cpp:2250-2282).
func (b *Backend) DrawTrianglesInstanced(indexCount, instanceCount int, indexType gfx.IndexType) {
	pass, pipe, ok := b.prepareDraw(gfx.PrimitiveTriangleList)
	if !ok {
		return
	}
	_ = pipe
	pass.DrawIndexed(uint32(indexCount), uint32(instanceCount), 0, 0, 0)
}

// Dispatch issues a compute dispatch with the given workgroup counts
// (spec §4.6/§4.7).
func (b *Backend) Dispatch(x, y, z uint32) {
	b.endPass()

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

	// ShaderHash folds in the program handle only: each program compiles
	// exactly one compute module, so (program) alone already disambiguates
	// every compute PSO the spec §4.5 key needs.
	key := pipeline.ComputeKey{ShaderHash: uint64(prog.id), Program: prog.id}
	pipe, err := b.pso.GetOrCreateCompute(b.ctx.Device(), key, func(device hal.Device) (hal.ComputePipeline, error) {
		return device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  "compute",
			Module: mod,
			Entry:  "main",
		})
	})
	if err != nil {
		b.ctx.Logger().Error("cmdlist: resolve compute pipeline", "err", err)
		return
	}

	frame := b.ring.Current()
	cpass := frame.Encoder().BeginComputePass(&hal.ComputePassDescriptor{Label: "dispatch"})
	cpass.SetPipeline(pipe)
	b.bindComputeResourceGroups(cpass)
	cpass.Dispatch(x, y, z)
	cpass.End()
}

// bindComputeResourceGroups binds the SRV and UAV groups for a compute
// pass the way bindResourceGroups does for a render pass, using its own
// copy of the entry-building code; no CBV group is bound here.
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

// SwapBuffers closes any open render pass, ends the current frame
// (closing+submitting its encoder and signaling its fence), advances the
// frame ring, and begins the next frame slot — draining its release list
// and resetting its scratch arena per spec §4.3.
func (b *Backend) SwapBuffers() (int, error) {
	b.endPass()
	retired := b.ring.Index()
	if _, err := b.ring.Advance(); err != nil {
		return 0, fmt.Errorf("cmdlist: swap buffers: %w", err)
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

// clearRequest stashes the pending Clear call's parameters until the next
// ensurePass actually opens a hal render pass with them as load ops.
type clearRequest struct {
	flags gfx.ClearFlags
	color [4]float32
	depth float32
}

// ensurePass opens a render pass against the currently bound framebuffer
// if one is not already open, applying any pending Clear as the
// attachments' load op. Returns ok=false if there is nothing bound yet.
func (b *Backend) ensurePass() (hal.RenderPassEncoder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.passOpen {
		return b.pass, true
	}
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
		Label:                   "frame",
		ColorAttachments:        colorAttachments,
		DepthStencilAttachment:  depthAttachment,
	})
	b.pass = pass
	b.passOpen = true

	if w := b.viewport; w[2] != 0 || w[3] != 0 {
		pass.SetViewport(float32(w[0]), float32(w[1]), float32(w[2]), float32(w[3]), 0, 1)
	}
	if b.hasScissor {
		s := b.scissor
		pass.SetScissorRect(uint32(s[0]), uint32(s[1]), uint32(s[2]), uint32(s[3]))
	}
	return pass, true
}

// endPass closes the currently open render pass, if any.
func (b *Backend) endPass() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.passOpen {
		return
	}
	b.pass.End()
	b.passOpen = false
	b.pass = nil
}

// prepareDraw opens the render pass (if needed), resolves the PSO for the
// pending state/program/topology/attachment-format tuple, and binds it.
func (b *Backend) prepareDraw(topology gfx.PrimitiveTopology) (hal.RenderPassEncoder, hal.RenderPipeline, bool) {
	pass, ok := b.ensurePass()
	if !ok {
		return nil, nil, false
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
		return nil, nil, false
	}

	key := pipeline.RenderKey{
		State:       stateTupleFromState(state),
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
		b.ctx.Logger().Error("cmdlist: resolve render pipeline", "err", err)
		return nil, nil, false
	}

	pass.SetPipeline(pipe)
	pass.SetStencilReference(uint32(state.StencilRef()))
	b.bindResourceGroups(pass)
	return pass, pipe, true
}

// textureBindingKind and its buffer-binding counterpart pick the bind
// group layout entry's resource kind for a plain (non-UAV) binding.
const textureBindingKind = hal.BindingKindTexture

var uniformBindingKind = []hal.BindingKind{hal.BindingKindUniformBuffer}

// bindResourceGroups builds and binds a hal.BindGroup per non-empty
// descriptor-heap slot (CBV/SRV/UAV, spec §4.2's slot layout captured in
// internal/descheap.SlotCBV/SlotSRV/SlotUAV) from whatever was last bound
// through BindUniformBuffer/BindTextures/BindImageTexture/BindShaderBuffer.
// hal's bind-group model replaces the original's raw descriptor-table
// copy (HeapAllocator.copy): building a fresh layout from this draw's
// entries each time is the wgpu-idiomatic equivalent of "copy current
// descriptors into this frame's ring window" (internal/descheap.Ring
// itself is exercised directly by gfx.System's heap-ID bookkeeping and its
// own unit tests, not re-derived here).
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

// createBindGroup builds a bind group whose every entry shares the same
// resource kind (the common case: a homogeneous SRV array or a single CBV).
func (b *Backend) createBindGroup(group uint32, entries []hal.BindGroupEntry, kind hal.BindingKind) (hal.BindGroup, error) {
	kinds := make([]hal.BindingKind, len(entries))
	for i := range kinds {
		kinds[i] = kind
	}
	return b.createBindGroupMixed(group, entries, kinds)
}

// createBindGroupMixed builds the hal.BindGroupLayout matching entries'
// bindings/kinds one-for-one, then the hal.BindGroup itself. Called fresh
// per draw/dispatch rather than cached, since the entry set (and therefore
// the layout it implies) can change every call; internal/pipeline's PSO
// cache is what amortizes the expensive part of this path, the render or
// compute pipeline object itself. Both the layout and the group it backs
// are only safe to free once this frame retires, so they go on the current
// frame's release list instead of being destroyed inline.
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
		return nil, fmt.Errorf("cmdlist: create bind group layout for group %d: %w", group, err)
	}
	bindGroup, err := b.ctx.Device().CreateBindGroup(&hal.BindGroupDescriptor{Layout: layout, Entries: entries})
	if err != nil {
		b.ctx.Device().DestroyBindGroupLayout(layout)
		return nil, fmt.Errorf("cmdlist: create bind group for group %d: %w", group, err)
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
