package cmdlist

import (
	"github.com/embergfx/backend/gfx"
	"github.com/embergfx/backend/internal/pipeline"
	"github.com/embergfx/backend/internal/shaderx"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

// max1 clamps a zero-valued dimension/count up to 1, matching hal's
// requirement that Extent3D and MipLevelCount fields never be zero.
func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

// dimensionFor picks the hal texture dimension from a TextureDesc's flags
// and depth, mirroring the original's implicit 2D-unless-said-otherwise
// default.
func dimensionFor(desc gfx.TextureDesc) types.TextureDimension {
	switch {
	case desc.Flags&gfx.Texture3D != 0:
		return types.TextureDimension3D
	case desc.Depth > 1:
		return types.TextureDimension3D
	default:
		return types.TextureDimension2D
	}
}

// bytesPerRow computes the tightly packed base-level row pitch: four bytes
// per texel for the uncompressed RGBA8 family, and one 8- or 16-byte block
// per four texels across for the BC formats internal/ddsimage decodes.
func bytesPerRow(desc gfx.TextureDesc) uint32 {
	switch desc.Format {
	case gputypes.TextureFormatBC1Unorm, gputypes.TextureFormatBC4Unorm:
		return (desc.Width + 3) / 4 * 8
	case gputypes.TextureFormatBC2Unorm, gputypes.TextureFormatBC3Unorm, gputypes.TextureFormatBC5Unorm:
		return (desc.Width + 3) / 4 * 16
	}
	return desc.Width * 4
}

// isDepthFormat reports whether fmt is one of the depth/depth-stencil
// formats, used by SetFramebuffer to split the incoming attachment slice
// into color targets and a depth-stencil target (spec §4.6's
// setFramebuffer).
func isDepthFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatDepth16Unorm,
		gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float:
		return true
	default:
		return false
	}
}

// bufferUsage maps gfx.BufferFlags to the hal usage bitmask. Every buffer
// gets CopyDst so UpdateBuffer/CreateBuffer's initial-data upload can
// target it regardless of its declared role.
func bufferUsage(flags gfx.BufferFlags) types.BufferUsage {
	usage := types.BufferUsageCopyDst | types.BufferUsageCopySrc | types.BufferUsageVertex | types.BufferUsageIndex
	if flags&gfx.BufferUniform != 0 {
		usage |= types.BufferUsageUniform
	}
	if flags&gfx.BufferShader != 0 {
		usage |= types.BufferUsageStorage
	}
	if flags&(gfx.BufferMappable|gfx.BufferPersistent) != 0 {
		usage |= types.BufferUsageMapRead | types.BufferUsageMapWrite
	}
	return usage
}

// textureUsage maps gfx.TextureFlags to the hal usage bitmask.
func textureUsage(flags gfx.TextureFlags) types.TextureUsage {
	usage := types.TextureUsageTextureBinding | types.TextureUsageCopyDst | types.TextureUsageCopySrc
	if flags&gfx.TextureRenderTarget != 0 {
		usage |= types.TextureUsageRenderAttachment
	}
	if flags&gfx.TextureComputeWrite != 0 {
		usage |= types.TextureUsageStorageBinding
	}
	return usage
}

// indexFormat maps a gfx.IndexType to the hal index-format enum.
func indexFormat(t gfx.IndexType) types.IndexFormat {
	if t == gfx.IndexUInt32 {
		return types.IndexFormatUint32
	}
	return types.IndexFormatUint16
}

// topologyToNative maps a gfx.PrimitiveTopology to the native enum the PSO
// key and the pipeline descriptor both expect.
func topologyToNative(t gfx.PrimitiveTopology) gputypes.PrimitiveTopology {
	switch t {
	case gfx.PrimitiveTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	case gfx.PrimitiveLineList:
		return gputypes.PrimitiveTopologyLineList
	case gfx.PrimitiveLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case gfx.PrimitivePointList:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// cullModeFor maps State's 2-bit cull field to gputypes.CullMode.
func cullModeFor(s gfx.State) gputypes.CullMode {
	switch s.CullMode() {
	case gfx.CullBack:
		return gputypes.CullModeBack
	case gfx.CullFront:
		return gputypes.CullModeFront
	default:
		return gputypes.CullModeNone
	}
}

// depthFuncFor maps State's stencil-disabled-style "4 bits, 0 = disabled"
// depth-test encoding to pipeline.DepthFunc. DepthTest()==false always
// collapses to DepthAlways, matching spec §4.5's tie-break ("depth test
// off behaves as ALWAYS for PSO-key purposes").
func depthFuncFor(s gfx.State) pipeline.DepthFunc {
	if !s.DepthTest() {
		return pipeline.DepthAlways
	}
	return pipeline.DepthLessEqual
}

// stencilFuncFor maps State's 4-bit stencil-func field to pipeline.StencilFunc.
func stencilFuncFor(s gfx.State) pipeline.StencilFunc {
	f := s.StencilFunc()
	if f == 0 {
		return pipeline.StencilDisable
	}
	return pipeline.StencilFunc(f)
}

// stateTupleFromState narrows a gfx.State down to the fields
// internal/pipeline.StateTuple packs into the render-pipeline cache key.
// Every stencil field State exposes is carried through so that two draws
// differing only in read/write mask or ops resolve to distinct PSOs
// instead of colliding on the same cache key.
func stateTupleFromState(s gfx.State) pipeline.StateTuple {
	sFail, zFail, zPass := s.StencilOps()
	return pipeline.StateTuple{
		Blend:            pipeline.BlendBits(s.BlendBits()),
		DepthFunc:        depthFuncFor(s),
		DepthWrite:       s.DepthWrite(),
		StencilFunc:      stencilFuncFor(s),
		StencilRef:       s.StencilRef(),
		StencilReadMask:  s.StencilReadMask(),
		StencilWriteMask: s.StencilWriteMask(),
		StencilSFail:     sFail,
		StencilZFail:     zFail,
		StencilZPass:     zPass,
		CullMode:         cullModeFor(s),
		Wireframe:        s.Wireframe(),
	}
}

// attrsToKey converts a program's vertex-attribute list to the key shape
// internal/pipeline.RenderKey hashes.
func attrsToKey(attrs []gfx.AttributeDesc) []pipeline.AttributeDesc {
	out := make([]pipeline.AttributeDesc, len(attrs))
	for i, a := range attrs {
		out[i] = pipeline.AttributeDesc{Location: a.Location, Format: a.Type, Offset: a.Offset}
	}
	return out
}

// vertexBufferLayout builds the single interleaved vertex-buffer layout
// prepareDraw's pipeline descriptor needs from a program's flat attribute
// list. The original interleaved every attribute into one stream per
// vertex-buffer slot; this backend follows the same convention rather than
// one hal.VertexBufferLayout per attribute.
func vertexBufferLayout(attrs []gfx.AttributeDesc) hal.VertexBufferLayout {
	layoutAttrs := make([]hal.VertexAttribute, len(attrs))
	var stride uint32
	for i, a := range attrs {
		layoutAttrs[i] = hal.VertexAttribute{
			Format:         a.Type,
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		}
		if end := a.Offset + formatSize(a.Type); end > stride {
			stride = end
		}
	}
	stepMode := types.VertexStepModeVertex
	for _, a := range attrs {
		if a.Instanced {
			stepMode = types.VertexStepModeInstance
			break
		}
	}
	return hal.VertexBufferLayout{
		ArrayStride: uint64(stride),
		StepMode:    stepMode,
		Attributes:  layoutAttrs,
	}
}

// formatSize returns a vertex format's byte size, used only to derive the
// interleaved stride vertexBufferLayout needs when the caller hasn't
// already padded attributes to a known stride.
func formatSize(f gputypes.VertexFormat) uint32 {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 4
	case gputypes.VertexFormatFloat32x2:
		return 8
	case gputypes.VertexFormatFloat32x3:
		return 12
	case gputypes.VertexFormatFloat32x4:
		return 16
	case gputypes.VertexFormatUint32:
		return 4
	case gputypes.VertexFormatUint8x4, gputypes.VertexFormatUnorm8x4:
		return 4
	default:
		return 4
	}
}

// renderPipelineDescriptor assembles the full hal render-pipeline
// descriptor from a program's modules, the resolved state tuple, topology,
// and attachment formats (spec §4.5's PSO build).
func renderPipelineDescriptor(prog *nativeProgram, state gfx.State, topology gfx.PrimitiveTopology, colorFormat, depthFormat gputypes.TextureFormat) *hal.RenderPipelineDescriptor {
	desc := &hal.RenderPipelineDescriptor{
		Label:          "draw",
		VertexModule:   prog.modules[shaderx.StageVertex],
		VertexEntry:    "main",
		FragmentModule: prog.modules[shaderx.StageFragment],
		FragmentEntry:  "main",
		Buffers:        []hal.VertexBufferLayout{vertexBufferLayout(prog.attributes)},
		Topology:       topologyToNative(topology),
		CullMode:       cullModeFor(state),
		Targets: []hal.ColorTargetState{{
			Format:    colorFormat,
			WriteMask: types.ColorWriteMaskAll,
		}},
	}
	if depthFormat != 0 {
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: state.DepthWrite(),
			DepthCompare:      depthCompareFor(state),
		}
		if state.StencilFunc() != 0 {
			sFail, zFail, zPass := state.StencilOps()
			face := hal.StencilFaceState{
				Compare:     stencilCompareFor(stencilFuncFor(state)),
				FailOp:      stencilOpFor(sFail),
				DepthFailOp: stencilOpFor(zFail),
				PassOp:      stencilOpFor(zPass),
			}
			desc.DepthStencil.StencilFront = face
			desc.DepthStencil.StencilBack = face
			desc.DepthStencil.StencilReadMask = uint32(state.StencilReadMask())
			desc.DepthStencil.StencilWriteMask = uint32(state.StencilWriteMask())
		}
	}
	return desc
}

// depthCompareFor maps State's depth-test bit to the hal comparison
// function: off collapses to Always, matching depthFuncFor's PSO-key
// tie-break.
func depthCompareFor(s gfx.State) types.CompareFunction {
	if !s.DepthTest() {
		return types.CompareFunctionAlways
	}
	return types.CompareFunctionLessEqual
}

// stencilCompareFor maps pipeline.StencilFunc to the hal comparison
// function used for both stencil faces (the original applies the same
// function/ops to FrontFace and BackFace alike, gpu_dx12.cpp:1993-2001).
func stencilCompareFor(f pipeline.StencilFunc) types.CompareFunction {
	switch f {
	case pipeline.StencilAlways:
		return types.CompareFunctionAlways
	case pipeline.StencilNever:
		return types.CompareFunctionNever
	case pipeline.StencilLess:
		return types.CompareFunctionLess
	case pipeline.StencilLessEqual:
		return types.CompareFunctionLessEqual
	case pipeline.StencilGreater:
		return types.CompareFunctionGreater
	case pipeline.StencilGreaterEqual:
		return types.CompareFunctionGreaterEqual
	case pipeline.StencilEqual:
		return types.CompareFunctionEqual
	case pipeline.StencilNotEqual:
		return types.CompareFunctionNotEqual
	default:
		return types.CompareFunctionAlways
	}
}

// stencilOpFor maps a packed 3-bit-used-as-4 stencil op field to the hal
// stencil operation, in the original's D3D12_STENCIL_OP table order
// (gpu_dx12.cpp:1975-1983): KEEP, ZERO, REPLACE, INCR_SAT, DECR_SAT,
// INVERT, INCR, DECR.
func stencilOpFor(raw uint8) types.StencilOperation {
	switch raw {
	case 1:
		return types.StencilOperationZero
	case 2:
		return types.StencilOperationReplace
	case 3:
		return types.StencilOperationIncrementClamp
	case 4:
		return types.StencilOperationDecrementClamp
	case 5:
		return types.StencilOperationInvert
	case 6:
		return types.StencilOperationIncrementWrap
	case 7:
		return types.StencilOperationDecrementWrap
	default:
		return types.StencilOperationKeep
	}
}
