package pipeline

import "testing"

func TestBlendBitsPackUnpack(t *testing.T) {
	b := Pack(BlendSrcAlpha, BlendInvSrcAlpha, BlendOne, BlendZero)
	if !b.Enabled() {
		t.Fatalf("Enabled() = false for non-zero blend bits")
	}
	srcRGB, dstRGB, srcA, dstA := b.Unpack()
	if srcRGB != BlendSrcAlpha || dstRGB != BlendInvSrcAlpha || srcA != BlendOne || dstA != BlendZero {
		t.Fatalf("Unpack() = (%v,%v,%v,%v); want (SrcAlpha,InvSrcAlpha,One,Zero)", srcRGB, dstRGB, srcA, dstA)
	}
}

func TestBlendBitsZeroMeansDisabled(t *testing.T) {
	var b BlendBits
	if b.Enabled() {
		t.Fatalf("Enabled() = true for zero blend bits; want false")
	}
}

func TestRenderKeyHashStableAndDistinct(t *testing.T) {
	k1 := RenderKey{
		State:   StateTuple{DepthFunc: DepthLess, DepthWrite: true},
		Program: 7,
		Attributes: []AttributeDesc{
			{Location: 0, Format: 1, Offset: 0},
		},
	}
	k2 := k1

	if k1.Hash() != k2.Hash() {
		t.Fatalf("identical keys hashed differently")
	}

	k3 := k1
	k3.Program = 8
	if k1.Hash() == k3.Hash() {
		t.Fatalf("different program handles hashed identically")
	}
}

func TestComputeKeyHash(t *testing.T) {
	a := ComputeKey{ShaderHash: 111, Program: 1}
	b := ComputeKey{ShaderHash: 111, Program: 2}
	if a.Hash() == b.Hash() {
		t.Fatalf("distinct compute keys hashed identically")
	}
}

func TestStateTupleDistinguishesStencilMasksAndOps(t *testing.T) {
	base := StateTuple{StencilFunc: StencilAlways, StencilRef: 1, StencilReadMask: 0xFF, StencilWriteMask: 0xFF}

	readMask := base
	readMask.StencilReadMask = 0x0F
	if base.pack() == readMask.pack() {
		t.Fatal("differing stencil read masks packed identically")
	}

	writeMask := base
	writeMask.StencilWriteMask = 0x0F
	if base.pack() == writeMask.pack() {
		t.Fatal("differing stencil write masks packed identically")
	}

	ops := base
	ops.StencilSFail = 2
	if base.pack() == ops.pack() {
		t.Fatal("differing stencil sfail ops packed identically")
	}

	ref := base
	ref.StencilRef = 2
	if base.pack() == ref.pack() {
		t.Fatal("differing stencil refs packed identically")
	}
}
