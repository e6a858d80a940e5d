package immediate

import (
	"github.com/embergfx/backend/gfx"
	"github.com/embergfx/backend/internal/pipeline"
	"github.com/embergfx/backend/internal/shaderx"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

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

func bytesPerRow(desc gfx.TextureDesc) uint32 {
	switch desc.Format {
	case gputypes.TextureFormatBC1Unorm, gputypes.TextureFormatBC4Unorm:
		return (desc.Width + 3) / 4 * 8
	case gputypes.TextureFormatBC2Unorm, gputypes.TextureFormatBC3Unorm, gputypes.TextureFormatBC5Unorm:
		return (desc.Width + 3) / 4 * 16
	}
	return desc.Width * 4
}

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

func indexFormat(t gfx.IndexType) types.IndexFormat {
	if t == gfx.IndexUInt32 {
		return types.IndexFormatUint32
	}
	return types.IndexFormatUint16
}

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

func depthFuncFor(s gfx.State) pipeline.DepthFunc {
	if !s.DepthTest() {
		return pipeline.DepthAlways
	}
	return pipeline.DepthLessEqual
}

func stencilFuncFor(s gfx.State) pipeline.StencilFunc {
	f := s.StencilFunc()
	if f == 0 {
		return pipeline.StencilDisable
	}
	return pipeline.StencilFunc(f)
}

// stateTupleFromState decodes a gfx.State into the tuple internal/pipeline
// hashes into a render-pipeline cache key. Called once per distinct State
// value by stateCache.getOrCreate rather than on every draw. Every stencil
// field State exposes is carried through so two states differing only in
// read/write mask or ops don't collide on the same PSO cache key.
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

func attrsToKey(attrs []gfx.AttributeDesc) []pipeline.AttributeDesc {
	out := make([]pipeline.AttributeDesc, len(attrs))
	for i, a := range attrs {
		out[i] = pipeline.AttributeDesc{Location: a.Location, Format: a.Type, Offset: a.Offset}
	}
	return out
}

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

// stencilOpFor maps a packed stencil op field to the hal stencil
// operation, in the original's D3D12_STENCIL_OP table order
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

// renderPipelineDescriptor assembles the hal render-pipeline descriptor
// from a program's modules, the state's cached tuple, topology, and
// attachment formats.
func renderPipelineDescriptor(prog *nativeProgram, state gfx.State, topology gfx.PrimitiveTopology, colorFormat, depthFormat gputypes.TextureFormat) *hal.RenderPipelineDescriptor {
	desc := &hal.RenderPipelineDescriptor{
		Label:          "immediate-draw",
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
