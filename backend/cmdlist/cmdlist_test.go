package cmdlist

import (
	"testing"
	"time"

	"github.com/embergfx/backend/gfx"
	"github.com/embergfx/backend/internal/driver"
	"github.com/embergfx/backend/internal/pipeline"
	"github.com/embergfx/backend/internal/shaderx"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

// The mocks below are a fuller hal.Device double than internal/pipeline's
// mockDevice or internal/driver's mockHALDevice: cmdlist actually records
// into the objects those packages leave nil (encoders, passes, buffers,
// texture views), so the mock has to hand back something non-nil to follow.

type mockBuffer struct{ mapped []byte }

func (b *mockBuffer) Map(_, size uint64) ([]byte, error) {
	b.mapped = make([]byte, size)
	return b.mapped, nil
}
func (b *mockBuffer) Unmap() {}

type mockTextureView struct{}

type mockTexture struct{}

func (t *mockTexture) CreateView(_ *hal.TextureViewDescriptor) hal.TextureView {
	return &mockTextureView{}
}

type mockShaderModule struct{ stage string }

type mockRenderPipeline struct{}

func (p *mockRenderPipeline) Destroy()              {}
func (p *mockRenderPipeline) NativeHandle() uintptr { return 0 }

type mockComputePipeline struct{}

func (p *mockComputePipeline) Destroy()              {}
func (p *mockComputePipeline) NativeHandle() uintptr { return 0 }

type mockBindGroupLayout struct{}
type mockBindGroup struct{}
type mockFence struct{}
type mockCommandBuffer struct{}

type mockRenderPass struct {
	draws             int
	indexedDraws      int
	lastIndexCount    uint32
	lastInstanceCount uint32
	bindGroups        int
	lastStencilRef    uint32
	ended             bool
}

func (p *mockRenderPass) SetPipeline(_ hal.RenderPipeline)                          {}
func (p *mockRenderPass) SetStencilReference(ref uint32)                            { p.lastStencilRef = ref }
func (p *mockRenderPass) SetBindGroup(_ uint32, _ hal.BindGroup, _ []uint32)         { p.bindGroups++ }
func (p *mockRenderPass) SetVertexBuffer(_ uint32, _ hal.Buffer, _ uint64)           {}
func (p *mockRenderPass) SetIndexBuffer(_ hal.Buffer, _ types.IndexFormat, _ uint64) {}
func (p *mockRenderPass) SetViewport(_, _, _, _, _, _ float32)                       {}
func (p *mockRenderPass) SetScissorRect(_, _, _, _ uint32)                           {}
func (p *mockRenderPass) Draw(_, _, _, _ uint32)                                     { p.draws++ }
func (p *mockRenderPass) DrawIndexed(indexCount, instanceCount, _, _, _ uint32) {
	p.indexedDraws++
	p.lastIndexCount = indexCount
	p.lastInstanceCount = instanceCount
}
func (p *mockRenderPass) End() { p.ended = true }

type mockComputePass struct {
	dispatches int
	ended      bool
}

func (p *mockComputePass) SetPipeline(_ hal.ComputePipeline)                   {}
func (p *mockComputePass) SetBindGroup(_ uint32, _ hal.BindGroup, _ []uint32) {}
func (p *mockComputePass) Dispatch(_, _, _ uint32)                            { p.dispatches++ }
func (p *mockComputePass) End()                                               { p.ended = true }

type mockEncoder struct {
	renderPasses  []*mockRenderPass
	computePasses []*mockComputePass
	copies        int
	debugPushes   int
	debugPops     int
}

func (e *mockEncoder) CopyBufferToBuffer(_, _ hal.Buffer, _ []hal.BufferCopy) { e.copies++ }
func (e *mockEncoder) BeginRenderPass(_ *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &mockRenderPass{}
	e.renderPasses = append(e.renderPasses, p)
	return p
}
func (e *mockEncoder) BeginComputePass(_ *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	p := &mockComputePass{}
	e.computePasses = append(e.computePasses, p)
	return p
}
func (e *mockEncoder) PushDebugGroup(_ string) { e.debugPushes++ }
func (e *mockEncoder) PopDebugGroup()          { e.debugPops++ }
func (e *mockEncoder) Finish() (hal.CommandBuffer, error) {
	return &mockCommandBuffer{}, nil
}

type mockDevice struct {
	encoders []*mockEncoder
}

func (d *mockDevice) CreateBuffer(_ *hal.BufferDescriptor) (hal.Buffer, error) {
	return &mockBuffer{}, nil
}
func (d *mockDevice) DestroyBuffer(_ hal.Buffer) {}
func (d *mockDevice) CreateTexture(_ *hal.TextureDescriptor) (hal.Texture, error) {
	return &mockTexture{}, nil
}
func (d *mockDevice) DestroyTexture(_ hal.Texture) {}
func (d *mockDevice) CreateTextureView(_ hal.Texture, _ *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return &mockTextureView{}, nil
}
func (d *mockDevice) DestroyTextureView(_ hal.TextureView) {}
func (d *mockDevice) CreateSampler(_ *hal.SamplerDescriptor) (hal.Sampler, error) {
	return nil, nil
}
func (d *mockDevice) DestroySampler(_ hal.Sampler) {}
func (d *mockDevice) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return &mockBindGroupLayout{}, nil
}
func (d *mockDevice) DestroyBindGroupLayout(_ hal.BindGroupLayout) {}
func (d *mockDevice) CreateBindGroup(_ *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return &mockBindGroup{}, nil
}
func (d *mockDevice) DestroyBindGroup(_ hal.BindGroup) {}
func (d *mockDevice) CreatePipelineLayout(_ *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return nil, nil
}
func (d *mockDevice) DestroyPipelineLayout(_ hal.PipelineLayout) {}
func (d *mockDevice) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return &mockShaderModule{}, nil
}
func (d *mockDevice) DestroyShaderModule(_ hal.ShaderModule) {}
func (d *mockDevice) CreateRenderPipeline(_ *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return &mockRenderPipeline{}, nil
}
func (d *mockDevice) DestroyRenderPipeline(_ hal.RenderPipeline) {}
func (d *mockDevice) CreateComputePipeline(_ *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return &mockComputePipeline{}, nil
}
func (d *mockDevice) DestroyComputePipeline(_ hal.ComputePipeline) {}
func (d *mockDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	e := &mockEncoder{}
	d.encoders = append(d.encoders, e)
	return e, nil
}
func (d *mockDevice) CreateFence() (hal.Fence, error) { return &mockFence{}, nil }
func (d *mockDevice) DestroyFence(_ hal.Fence)        {}
func (d *mockDevice) Wait(_ hal.Fence, _ uint64, _ time.Duration) (bool, error) {
	return true, nil
}
func (d *mockDevice) Destroy() {}

type mockQueue struct {
	writes    int
	submitted int
}

func (q *mockQueue) Submit(_ []hal.CommandBuffer, _ hal.Fence, _ uint64) error {
	q.submitted++
	return nil
}
func (q *mockQueue) WriteBuffer(_ hal.Buffer, _ uint64, _ []byte) { q.writes++ }
func (q *mockQueue) WriteTexture(_ *hal.ImageCopyTexture, _ []byte, _ *hal.ImageDataLayout, _ *hal.Extent3D) {
}

func newTestBackend(t *testing.T) (*Backend, *mockDevice, *mockQueue) {
	t.Helper()
	dev := &mockDevice{}
	q := &mockQueue{}
	ctx, err := driver.NewContext(dev, q, driver.Info{Name: "mock"}, nil, false)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	b := &Backend{}
	if err := b.Init(ctx, &gfx.Shared{PSO: pipeline.New()}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return b, dev, q
}

func TestBackendName(t *testing.T) {
	b := &Backend{}
	if b.Name() != "cmdlist" {
		t.Fatalf("Name() = %q; want cmdlist", b.Name())
	}
}

func TestCreateBufferUploadsInitialData(t *testing.T) {
	b, _, q := newTestBackend(t)
	nb, err := b.CreateBuffer(64, gfx.BufferUniform, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if nb == nil {
		t.Fatal("CreateBuffer returned nil NativeBuffer")
	}
	if q.writes != 1 {
		t.Fatalf("writes = %d; want 1", q.writes)
	}
}

func TestMapUnmapBufferRoundTrips(t *testing.T) {
	b, _, _ := newTestBackend(t)
	nb, err := b.CreateBuffer(32, gfx.BufferMappable, nil)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	data, err := b.MapBuffer(nb)
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	if len(data) != 32 {
		t.Fatalf("len(data) = %d; want 32", len(data))
	}
	if err := b.UnmapBuffer(nb); err != nil {
		t.Fatalf("UnmapBuffer: %v", err)
	}
}

func TestDrawArraysOpensAndClosesOnSwap(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	tex, err := b.CreateTexture(gfx.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm, Flags: gfx.TextureRenderTarget}, nil)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	prog, err := b.CreateProgram(gfx.ProgramDesc{})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}

	b.SetFramebuffer([]gfx.NativeTexture{tex}, 0)
	b.UseProgram(prog)
	b.SetState(gfx.NewState(0, 0, 0, 0xff, 0xff, 0, 0, 0, 0))
	b.DrawArrays(0, 3, gfx.PrimitiveTriangleList)

	if _, err := b.SwapBuffers(); err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}

	found := false
	for _, enc := range dev.encoders {
		for _, p := range enc.renderPasses {
			if p.draws == 1 && p.ended {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected one ended render pass recording one draw call")
	}
}

func TestDrawTrianglesInstancedRecordsInstanceCount(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	tex, err := b.CreateTexture(gfx.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm, Flags: gfx.TextureRenderTarget}, nil)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	prog, err := b.CreateProgram(gfx.ProgramDesc{})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	idx, err := b.CreateBuffer(6, 0, nil)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	b.SetFramebuffer([]gfx.NativeTexture{tex}, 0)
	b.UseProgram(prog)
	b.SetState(gfx.NewState(0, 0, 0, 0xff, 0xff, 0, 0, 0, 0))
	b.BindIndexBuffer(idx, gfx.IndexUInt16)
	b.DrawTrianglesInstanced(3, 4, gfx.IndexUInt16)

	if _, err := b.SwapBuffers(); err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}

	var pass *mockRenderPass
	for _, enc := range dev.encoders {
		for _, p := range enc.renderPasses {
			if p.indexedDraws == 1 {
				pass = p
			}
		}
	}
	if pass == nil {
		t.Fatal("expected one ended render pass recording one indexed draw call")
	}
	if pass.lastIndexCount != 3 {
		t.Fatalf("index count = %d; want 3", pass.lastIndexCount)
	}
	if pass.lastInstanceCount != 4 {
		t.Fatalf("instance count = %d; want 4", pass.lastInstanceCount)
	}
	if !pass.ended {
		t.Fatal("expected render pass to be ended")
	}
}

func TestDrawTrianglesForwardsToInstancedWithCountOne(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	tex, err := b.CreateTexture(gfx.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm, Flags: gfx.TextureRenderTarget}, nil)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	prog, err := b.CreateProgram(gfx.ProgramDesc{})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	idx, err := b.CreateBuffer(6, 0, nil)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	b.SetFramebuffer([]gfx.NativeTexture{tex}, 0)
	b.UseProgram(prog)
	b.SetState(gfx.NewState(0, 0, 0, 0xff, 0xff, 0, 0, 0, 0))
	b.BindIndexBuffer(idx, gfx.IndexUInt16)
	b.DrawTriangles(3, gfx.IndexUInt16)

	if _, err := b.SwapBuffers(); err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}

	var pass *mockRenderPass
	for _, enc := range dev.encoders {
		for _, p := range enc.renderPasses {
			if p.indexedDraws == 1 {
				pass = p
			}
		}
	}
	if pass == nil {
		t.Fatal("expected one ended render pass recording one indexed draw call")
	}
	if pass.lastInstanceCount != 1 {
		t.Fatalf("instance count = %d; want 1", pass.lastInstanceCount)
	}
}

func TestDispatchRunsOneComputePass(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	prog, err := b.CreateProgram(gfx.ProgramDesc{Modules: map[shaderx.Stage]hal.ShaderModule{shaderx.StageCompute: &mockShaderModule{stage: "compute"}}})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	b.UseProgram(prog)
	b.Dispatch(1, 1, 1)

	found := false
	for _, enc := range dev.encoders {
		for _, p := range enc.computePasses {
			if p.dispatches == 1 && p.ended {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected one ended compute pass recording one dispatch")
	}
}

func TestSwapBuffersReturnsRetiredIndex(t *testing.T) {
	b, _, _ := newTestBackend(t)
	idx, err := b.SwapBuffers()
	if err != nil {
		t.Fatalf("SwapBuffers: %v", err)
	}
	if idx != 0 {
		t.Fatalf("retired index = %d; want 0", idx)
	}
}
