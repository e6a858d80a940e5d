package framering

import (
	"time"

	"github.com/gogpu/wgpu/hal"
)

// mockHALDevice is a test double for hal.Device, grounded on
// backend/native/texture_test.go's mockHALDevice: every method the pack's
// own tests exercise against hal.Device is reproduced here so Frame/Ring
// tests never touch a real GPU.
type mockHALDevice struct {
	fenceWaits int
}

func (d *mockHALDevice) CreateBuffer(_ *hal.BufferDescriptor) (hal.Buffer, error) { return nil, nil }
func (d *mockHALDevice) DestroyBuffer(_ hal.Buffer)                               {}

func (d *mockHALDevice) CreateTexture(_ *hal.TextureDescriptor) (hal.Texture, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyTexture(_ hal.Texture) {}

func (d *mockHALDevice) CreateTextureView(_ hal.Texture, _ *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyTextureView(_ hal.TextureView) {}

func (d *mockHALDevice) CreateSampler(_ *hal.SamplerDescriptor) (hal.Sampler, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroySampler(_ hal.Sampler) {}

func (d *mockHALDevice) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyBindGroupLayout(_ hal.BindGroupLayout) {}

func (d *mockHALDevice) CreateBindGroup(_ *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyBindGroup(_ hal.BindGroup) {}

func (d *mockHALDevice) CreatePipelineLayout(_ *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyPipelineLayout(_ hal.PipelineLayout) {}

func (d *mockHALDevice) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyShaderModule(_ hal.ShaderModule) {}

func (d *mockHALDevice) CreateRenderPipeline(_ *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyRenderPipeline(_ hal.RenderPipeline) {}

func (d *mockHALDevice) CreateComputePipeline(_ *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyComputePipeline(_ hal.ComputePipeline) {}

func (d *mockHALDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return &mockHALCommandEncoder{}, nil
}

func (d *mockHALDevice) CreateFence() (hal.Fence, error) { return &mockHALFence{}, nil }
func (d *mockHALDevice) DestroyFence(_ hal.Fence)        {}
func (d *mockHALDevice) Wait(_ hal.Fence, _ uint64, _ time.Duration) (bool, error) {
	d.fenceWaits++
	return true, nil
}
func (d *mockHALDevice) Destroy() {}

type mockHALFence struct{}

type mockHALCommandEncoder struct{}

func (e *mockHALCommandEncoder) Finish() (hal.CommandBuffer, error) {
	return &mockHALCommandBuffer{}, nil
}

type mockHALCommandBuffer struct{}

type mockHALQueue struct {
	submits int
}

func (q *mockHALQueue) Submit(_ []hal.CommandBuffer, _ hal.Fence, _ uint64) error {
	q.submits++
	return nil
}
