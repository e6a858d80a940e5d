package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// mockDevice is a minimal hal.Device double, grounded on
// backend/native/texture_test.go's mockHALDevice.
type mockDevice struct{}

func (d *mockDevice) CreateBuffer(_ *hal.BufferDescriptor) (hal.Buffer, error) { return nil, nil }
func (d *mockDevice) DestroyBuffer(_ hal.Buffer)                               {}
func (d *mockDevice) MapBuffer(_ hal.Buffer, _, _ uint64) (hal.BufferMapping, error) {
	return hal.BufferMapping{}, nil
}
func (d *mockDevice) UnmapBuffer(_ hal.Buffer) error { return nil }
func (d *mockDevice) CreateTexture(_ *hal.TextureDescriptor) (hal.Texture, error) {
	return nil, nil
}
func (d *mockDevice) DestroyTexture(_ hal.Texture) {}
func (d *mockDevice) CreateTextureView(_ hal.Texture, _ *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return nil, nil
}
func (d *mockDevice) DestroyTextureView(_ hal.TextureView) {}
func (d *mockDevice) CreateSampler(_ *hal.SamplerDescriptor) (hal.Sampler, error) {
	return nil, nil
}
func (d *mockDevice) DestroySampler(_ hal.Sampler) {}
func (d *mockDevice) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return nil, nil
}
func (d *mockDevice) DestroyBindGroupLayout(_ hal.BindGroupLayout) {}
func (d *mockDevice) CreateBindGroup(_ *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return nil, nil
}
func (d *mockDevice) DestroyBindGroup(_ hal.BindGroup) {}
func (d *mockDevice) CreatePipelineLayout(_ *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return nil, nil
}
func (d *mockDevice) DestroyPipelineLayout(_ hal.PipelineLayout) {}
func (d *mockDevice) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return nil, nil
}
func (d *mockDevice) DestroyShaderModule(_ hal.ShaderModule) {}
func (d *mockDevice) CreateRenderPipeline(_ *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return nil, nil
}
func (d *mockDevice) DestroyRenderPipeline(_ hal.RenderPipeline) {}
func (d *mockDevice) CreateComputePipeline(_ *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return nil, nil
}
func (d *mockDevice) DestroyComputePipeline(_ hal.ComputePipeline) {}
func (d *mockDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return nil, nil
}
func (d *mockDevice) CreateRenderBundleEncoder(_ *hal.RenderBundleEncoderDescriptor) (hal.RenderBundleEncoder, error) {
	return nil, nil
}
func (d *mockDevice) DestroyRenderBundle(_ hal.RenderBundle)   {}
func (d *mockDevice) FreeCommandBuffer(_ hal.CommandBuffer)    {}
func (d *mockDevice) ResetFence(_ hal.Fence) error             { return nil }
func (d *mockDevice) GetFenceStatus(_ hal.Fence) (bool, error) { return true, nil }
func (d *mockDevice) WaitIdle() error                          { return nil }
func (d *mockDevice) CreateQuerySet(_ *hal.QuerySetDescriptor) (hal.QuerySet, error) {
	return nil, nil
}
func (d *mockDevice) DestroyQuerySet(_ hal.QuerySet) {}
func (d *mockDevice) CreateFence() (hal.Fence, error) { return nil, nil }
func (d *mockDevice) DestroyFence(_ hal.Fence)        {}
func (d *mockDevice) Wait(_ hal.Fence, _ uint64, _ time.Duration) (bool, error) {
	return true, nil
}
func (d *mockDevice) Destroy() {}

type mockRenderPipeline struct{ id int }

func (p *mockRenderPipeline) Destroy()              {}
func (p *mockRenderPipeline) NativeHandle() uintptr { return 0 }

func TestCacheGetOrCreateRenderHitsAfterFirstCreate(t *testing.T) {
	c := New()
	dev := &mockDevice{}
	key := RenderKey{Program: 1}

	calls := 0
	create := func(hal.Device) (hal.RenderPipeline, error) {
		calls++
		return &mockRenderPipeline{id: calls}, nil
	}

	p1, err := c.GetOrCreateRender(dev, key, create)
	if err != nil {
		t.Fatalf("GetOrCreateRender: %v", err)
	}
	p2, err := c.GetOrCreateRender(dev, key, create)
	if err != nil {
		t.Fatalf("GetOrCreateRender: %v", err)
	}

	if p1 != p2 {
		t.Fatalf("cache returned distinct pipelines for the same key")
	}
	if calls != 1 {
		t.Fatalf("create called %d times; want 1", calls)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("Stats() = (%d,%d); want (1,1)", hits, misses)
	}
}

func TestCacheNilDevice(t *testing.T) {
	c := New()
	if _, err := c.GetOrCreateRender(nil, RenderKey{}, nil); !errors.Is(err, ErrNilDevice) {
		t.Fatalf("err = %v; want ErrNilDevice", err)
	}
}

func TestCacheCreateFailurePropagates(t *testing.T) {
	c := New()
	dev := &mockDevice{}
	wantErr := errors.New("boom")

	_, err := c.GetOrCreateRender(dev, RenderKey{}, func(hal.Device) (hal.RenderPipeline, error) {
		return nil, wantErr
	})
	if !errors.Is(err, ErrCreateFailed) || !errors.Is(err, wantErr) {
		t.Fatalf("err = %v; want wrapping both ErrCreateFailed and %v", err, wantErr)
	}
}
