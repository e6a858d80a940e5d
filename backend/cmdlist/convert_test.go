package cmdlist

import (
	"testing"

	"github.com/embergfx/backend/gfx"
	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
)

func TestMax1(t *testing.T) {
	if max1(0) != 1 {
		t.Fatal("max1(0) should clamp to 1")
	}
	if max1(5) != 5 {
		t.Fatal("max1(5) should pass through unchanged")
	}
}

func TestIsDepthFormat(t *testing.T) {
	cases := map[gputypes.TextureFormat]bool{
		gputypes.TextureFormatRGBA8Unorm:          false,
		gputypes.TextureFormatDepth24PlusStencil8: true,
		gputypes.TextureFormatDepth32Float:        true,
	}
	for f, want := range cases {
		if got := isDepthFormat(f); got != want {
			t.Errorf("isDepthFormat(%v) = %v; want %v", f, got, want)
		}
	}
}

func TestBufferUsageFlags(t *testing.T) {
	u := bufferUsage(gfx.BufferUniform | gfx.BufferShader)
	if u&types.BufferUsageUniform == 0 {
		t.Error("expected BufferUsageUniform bit set")
	}
	if u&types.BufferUsageStorage == 0 {
		t.Error("expected BufferUsageStorage bit set")
	}
	if u&types.BufferUsageCopyDst == 0 {
		t.Error("every buffer should get CopyDst")
	}
}

func TestIndexFormat(t *testing.T) {
	if indexFormat(gfx.IndexUInt32) != types.IndexFormatUint32 {
		t.Error("32-bit index type should map to IndexFormatUint32")
	}
	if indexFormat(gfx.IndexUInt16) != types.IndexFormatUint16 {
		t.Error("16-bit index type should map to IndexFormatUint16")
	}
}

func TestStateTupleFromStateDepthDisabledCollapsesToAlways(t *testing.T) {
	s := gfx.NewState(0, 0, 0, 0xff, 0xff, 0, 0, 0, 0)
	tuple := stateTupleFromState(s)
	if tuple.DepthFunc != 0 {
		t.Errorf("DepthFunc = %v; want DepthAlways (0) when depth test is off", tuple.DepthFunc)
	}
}

func TestRenderPipelineDescriptorWiresStencilState(t *testing.T) {
	s := gfx.NewState(gfx.FlagDepthTest, 1, 0x42, 0x0F, 0xF0, 2, 3, 6, 0)
	prog := &nativeProgram{}
	desc := renderPipelineDescriptor(prog, s, gfx.PrimitiveTriangleList, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24PlusStencil8)

	if desc.DepthStencil == nil {
		t.Fatal("expected a DepthStencil descriptor when a depth format is given")
	}
	if desc.DepthStencil.StencilReadMask != 0x0F {
		t.Errorf("StencilReadMask = %#x; want 0x0F", desc.DepthStencil.StencilReadMask)
	}
	if desc.DepthStencil.StencilWriteMask != 0xF0 {
		t.Errorf("StencilWriteMask = %#x; want 0xF0", desc.DepthStencil.StencilWriteMask)
	}
	if desc.DepthStencil.StencilFront.FailOp != types.StencilOperationReplace {
		t.Errorf("StencilFront.FailOp = %v; want Replace for raw op 2", desc.DepthStencil.StencilFront.FailOp)
	}
	if desc.DepthStencil.StencilFront != desc.DepthStencil.StencilBack {
		t.Error("StencilFront and StencilBack should carry the same ops; State has no separate front/back fields")
	}
}

func TestRenderPipelineDescriptorLeavesStencilZeroWhenDisabled(t *testing.T) {
	s := gfx.NewState(0, 0, 0, 0xff, 0xff, 0, 0, 0, 0)
	prog := &nativeProgram{}
	desc := renderPipelineDescriptor(prog, s, gfx.PrimitiveTriangleList, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24PlusStencil8)

	if desc.DepthStencil.StencilReadMask != 0 || desc.DepthStencil.StencilWriteMask != 0 {
		t.Error("stencil masks should stay zero when StencilFunc is disabled")
	}
}

func TestFormatSizeKnownFormats(t *testing.T) {
	cases := map[gputypes.VertexFormat]uint32{
		gputypes.VertexFormatFloat32:   4,
		gputypes.VertexFormatFloat32x2: 8,
		gputypes.VertexFormatFloat32x3: 12,
		gputypes.VertexFormatFloat32x4: 16,
	}
	for f, want := range cases {
		if got := formatSize(f); got != want {
			t.Errorf("formatSize(%v) = %d; want %d", f, got, want)
		}
	}
}

func TestVertexBufferLayoutComputesStride(t *testing.T) {
	attrs := []gfx.AttributeDesc{
		{Location: 0, Offset: 0, Type: gputypes.VertexFormatFloat32x3},
		{Location: 1, Offset: 12, Type: gputypes.VertexFormatFloat32x2},
	}
	layout := vertexBufferLayout(attrs)
	if layout.ArrayStride != 20 {
		t.Fatalf("ArrayStride = %d; want 20", layout.ArrayStride)
	}
	if len(layout.Attributes) != 2 {
		t.Fatalf("len(Attributes) = %d; want 2", len(layout.Attributes))
	}
}
