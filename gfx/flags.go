package gfx

// BufferFlags controls how createBuffer allocates and marks a buffer
// (spec §6 "Flags enumerated").
type BufferFlags uint32

const (
	BufferUniform    BufferFlags = 1 << iota // UNIFORM_BUFFER
	BufferMappable                           // MAPPABLE
	BufferPersistent                         // PERSISTENT
	BufferShader                             // SHADER_BUFFER: raw/structured buffer, size rounded to 16 B
)

// TextureFlags controls how createTexture/loadTexture build a texture and
// its sampler state.
type TextureFlags uint32

const (
	TextureSRGB TextureFlags = 1 << iota
	TextureNoMips
	TextureReadback
	Texture3D
	TextureCube
	TextureComputeWrite
	TextureRenderTarget
	TextureClampU
	TextureClampV
	TextureClampW
	TexturePointFilter
)

// ClearFlags selects which attachments clear touches.
type ClearFlags uint32

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

// FramebufferFlags modifies setFramebuffer's attachment binding.
type FramebufferFlags uint32

const (
	// FramebufferReadonlyDepthStencil binds the depth-stencil attachment
	// depth-read with a read-only DSV instead of depth-write.
	FramebufferReadonlyDepthStencil FramebufferFlags = 1 << iota
)

// State packs the 64-bit state tuple spec §3 describes: cull mode (2),
// wireframe (1), depth test (1), depth write (1), stencil func (4),
// stencil ref (8), stencil read mask (8), stencil write mask (8), stencil
// sfail/zfail/zpass (3×4), blend bits (16). Bit layout matches the
// original's packed u64 so callers porting state values need no reordering.
type State uint64

const (
	stateCullShift    = 0
	stateWireShift    = 2
	stateDepthShift   = 3
	stateDepthWShift  = 4
	stateStencilShift = 5
	stateRefShift     = 9
	stateRMaskShift   = 17
	stateWMaskShift   = 25
	stateSFailShift   = 33
	stateZFailShift   = 37
	stateZPassShift   = 41
	stateBlendShift   = 45
	stateScissorShift = 61
)

// Cull mode values occupying State's 2-bit cull field.
const (
	CullNone State = iota
	CullBack
	CullFront
)

// StateFlags are the single-bit toggles the public API table calls
// CULL_BACK/CULL_FRONT/WIREFRAME/DEPTH_TEST/DEPTH_WRITE/SCISSOR_TEST; they
// are folded into a State value by NewState rather than kept as a separate
// bitmask, since the PSO key packs them into the same 64-bit tuple as the
// blend/stencil fields.
type StateFlags uint32

const (
	FlagCullBack StateFlags = 1 << iota
	FlagCullFront
	FlagWireframe
	FlagDepthTest
	FlagDepthWrite
	FlagScissorTest
)

// NewState builds a packed State from individual fields, matching the
// original's bit layout. blend is a BlendBits value from internal/pipeline
// packed verbatim into bits 45-60 of the tuple.
func NewState(flags StateFlags, stencilFunc, stencilRef, readMask, writeMask uint8, sFail, zFail, zPass uint8, blend uint16) State {
	var s State
	switch {
	case flags&FlagCullBack != 0:
		s |= CullBack << stateCullShift
	case flags&FlagCullFront != 0:
		s |= CullFront << stateCullShift
	}
	s |= boolState(flags&FlagWireframe != 0) << stateWireShift
	s |= boolState(flags&FlagDepthTest != 0) << stateDepthShift
	s |= boolState(flags&FlagDepthWrite != 0) << stateDepthWShift
	s |= State(stencilFunc&0xF) << stateStencilShift
	s |= State(stencilRef) << stateRefShift
	s |= State(readMask) << stateRMaskShift
	s |= State(writeMask) << stateWMaskShift
	s |= State(sFail&0xF) << stateSFailShift
	s |= State(zFail&0xF) << stateZFailShift
	s |= State(zPass&0xF) << stateZPassShift
	s |= State(blend) << stateBlendShift
	s |= boolState(flags&FlagScissorTest != 0) << stateScissorShift
	return s
}

func boolState(b bool) State {
	if b {
		return 1
	}
	return 0
}

// CullMode extracts the 2-bit cull field.
func (s State) CullMode() State { return (s >> stateCullShift) & 0x3 }

// Wireframe reports the wireframe bit.
func (s State) Wireframe() bool { return (s>>stateWireShift)&1 != 0 }

// DepthTest reports the depth-test bit.
func (s State) DepthTest() bool { return (s>>stateDepthShift)&1 != 0 }

// DepthWrite reports the depth-write bit.
func (s State) DepthWrite() bool { return (s>>stateDepthWShift)&1 != 0 }

// StencilFunc extracts the 4-bit stencil-func field. Zero means disabled
// (spec §4.5's "Stencil func DISABLE ⇒ stencil entirely disabled").
func (s State) StencilFunc() uint8 { return uint8(s>>stateStencilShift) & 0xF }

// StencilRef extracts the 8-bit stencil reference value.
func (s State) StencilRef() uint8 { return uint8(s >> stateRefShift) }

// StencilReadMask extracts the 8-bit stencil read mask.
func (s State) StencilReadMask() uint8 { return uint8(s >> stateRMaskShift) }

// StencilWriteMask extracts the 8-bit stencil write mask.
func (s State) StencilWriteMask() uint8 { return uint8(s >> stateWMaskShift) }

// StencilOps extracts the sfail/zfail/zpass 4-bit fields.
func (s State) StencilOps() (sFail, zFail, zPass uint8) {
	return uint8(s>>stateSFailShift) & 0xF, uint8(s>>stateZFailShift) & 0xF, uint8(s>>stateZPassShift) & 0xF
}

// BlendBits extracts the packed 16-bit blend-factor tuple, consumed
// directly by internal/pipeline.BlendBits.
func (s State) BlendBits() uint16 { return uint16(s >> stateBlendShift) }

// ScissorTest reports the scissor-test bit.
func (s State) ScissorTest() bool { return (s>>stateScissorShift)&1 != 0 }

// PrimitiveTopology enumerates the draw-call primitive topologies
// drawArrays/drawElements accept.
type PrimitiveTopology int

const (
	PrimitiveTriangleList PrimitiveTopology = iota
	PrimitiveTriangleStrip
	PrimitiveLineList
	PrimitiveLineStrip
	PrimitivePointList
)

// IndexType selects the index-buffer element width for drawElements-family
// calls.
type IndexType int

const (
	IndexUInt16 IndexType = iota
	IndexUInt32
)

// ShaderBufferFlags modifies bindShaderBuffer's binding (read-only SRV vs
// read-write UAV).
type ShaderBufferFlags uint32

const (
	ShaderBufferReadWrite ShaderBufferFlags = 1 << iota
)
