package pipeline

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/gogpu/gputypes"
)

// BlendFactor is one of the fourteen blend factors a 4-bit blend-bits field
// can select, in the fixed table order spec §4.5 specifies.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstColor
	BlendInvDstColor
	BlendDstAlpha
	BlendInvDstAlpha
	BlendSrc1Color
	BlendInvSrc1Color
	BlendSrc1Alpha
	BlendInvSrc1Alpha
)

// BlendBits packs {srcRGB, dstRGB, srcA, dstA} into four 4-bit fields. Zero
// means blending is disabled (spec §4.5's tie-break).
type BlendBits uint16

// Pack combines the four blend factors into the 16-bit encoding.
func Pack(srcRGB, dstRGB, srcA, dstA BlendFactor) BlendBits {
	return BlendBits(srcRGB) | BlendBits(dstRGB)<<4 | BlendBits(srcA)<<8 | BlendBits(dstA)<<12
}

// Enabled reports whether this blend-bits value requests blending at all.
func (b BlendBits) Enabled() bool { return b != 0 }

// Unpack splits the 16-bit encoding back into its four blend factors. Only
// meaningful when Enabled() is true.
func (b BlendBits) Unpack() (srcRGB, dstRGB, srcA, dstA BlendFactor) {
	return BlendFactor(b & 0xF), BlendFactor((b >> 4) & 0xF), BlendFactor((b >> 8) & 0xF), BlendFactor((b >> 12) & 0xF)
}

// StencilFunc mirrors the original's stencil comparison function enum,
// where Disable turns stencil testing off entirely (spec §4.5 tie-break).
type StencilFunc uint8

const (
	StencilDisable StencilFunc = iota
	StencilAlways
	StencilNever
	StencilLess
	StencilLessEqual
	StencilGreater
	StencilGreaterEqual
	StencilEqual
	StencilNotEqual
)

// DepthFunc mirrors the original's depth comparison function enum. Depth
// testing off is represented as DepthAlways (spec §4.5 tie-break).
type DepthFunc uint8

const (
	DepthAlways DepthFunc = iota
	DepthNever
	DepthLess
	DepthLessEqual
	DepthGreater
	DepthGreaterEqual
	DepthEqual
	DepthNotEqual
)

// StateTuple is the packed render-state key: blend bits for one render
// target's color writes, depth function/write, the full stencil
// state (func, ref, read/write masks, sfail/zfail/zpass ops), cull mode,
// and fill mode. This mirrors the D3D12_GRAPHICS_PIPELINE_STATE_DESC the
// original hashes for its own PSO cache (gpu_dx12.cpp), which bakes
// StencilReadMask/StencilWriteMask and both stencil ops into the hashed
// struct rather than just whether stencil testing is on.
type StateTuple struct {
	Blend            BlendBits
	DepthFunc        DepthFunc
	DepthWrite       bool
	StencilFunc      StencilFunc
	StencilRef       uint8
	StencilReadMask  uint8
	StencilWriteMask uint8
	StencilSFail     uint8
	StencilZFail     uint8
	StencilZPass     uint8
	CullMode         gputypes.CullMode
	Wireframe        bool
}

// pack folds StateTuple into the 64-bit word the cache key is built from.
func (s StateTuple) pack() uint64 {
	var w uint64
	w |= uint64(s.Blend)
	w |= uint64(s.DepthFunc) << 16
	w |= boolBit(s.DepthWrite) << 19
	w |= uint64(s.StencilFunc&0xF) << 20
	w |= uint64(s.StencilRef) << 24
	w |= uint64(s.StencilReadMask) << 32
	w |= uint64(s.StencilWriteMask) << 40
	w |= uint64(s.StencilSFail&0xF) << 48
	w |= uint64(s.StencilZFail&0xF) << 52
	w |= uint64(s.StencilZPass&0xF) << 56
	w |= uint64(s.CullMode) << 60
	w |= boolBit(s.Wireframe) << 62
	return w
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// RenderKey is everything spec §4.5 folds into a render-pipeline cache key.
type RenderKey struct {
	State       StateTuple
	Program     uint32 // program handle, boxed
	Attributes  []AttributeDesc
	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat
	Topology    gputypes.PrimitiveTopology
}

// AttributeDesc is one vertex attribute slot entry in the key.
type AttributeDesc struct {
	Location uint32
	Format   gputypes.VertexFormat
	Offset   uint32
}

// Hash computes the CRC32 of RenderKey's packed fields, per spec §4.5.
func (k RenderKey) Hash() uint32 {
	buf := make([]byte, 0, 24+len(k.Attributes)*12)
	buf = appendU64(buf, k.State.pack())
	buf = appendU32(buf, k.Program)
	buf = appendU32(buf, uint32(k.ColorFormat))
	buf = appendU32(buf, uint32(k.DepthFormat))
	buf = appendU32(buf, uint32(k.Topology))
	for _, a := range k.Attributes {
		buf = appendU32(buf, a.Location)
		buf = appendU32(buf, uint32(a.Format))
		buf = appendU32(buf, a.Offset)
	}
	return crc32.ChecksumIEEE(buf)
}

// ComputeKey keys a compute pipeline on (hash of the compute-shader
// descriptor, program handle), per spec §4.5.
type ComputeKey struct {
	ShaderHash uint64
	Program    uint32
}

// Hash computes the CRC32 of ComputeKey's packed fields.
func (k ComputeKey) Hash() uint32 {
	buf := make([]byte, 0, 12)
	buf = appendU64(buf, k.ShaderHash)
	buf = appendU32(buf, k.Program)
	return crc32.ChecksumIEEE(buf)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
