package descheap

import "testing"

func TestRingAllocAndExhaustion(t *testing.T) {
	r := NewRing(3, 8)

	base, err := r.Alloc(5)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if base != 0 {
		t.Fatalf("base = %d; want 0", base)
	}

	if _, err := r.Alloc(4); err != ErrRingExhausted {
		t.Fatalf("Alloc over window size = %v; want ErrRingExhausted", err)
	}
}

func TestRingNextFrameRotates(t *testing.T) {
	r := NewRing(3, 8)
	if _, err := r.Alloc(8); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	r.NextFrame()
	if r.CurrentWindow() != 1 {
		t.Fatalf("CurrentWindow() = %d; want 1", r.CurrentWindow())
	}
	base, err := r.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc after NextFrame: %v", err)
	}
	if base != 8 {
		t.Fatalf("base = %d; want 8 (window 1 * windowSize 8)", base)
	}

	r.NextFrame()
	r.NextFrame()
	if r.CurrentWindow() != 0 {
		t.Fatalf("CurrentWindow() = %d; want wraps back to 0", r.CurrentWindow())
	}
}

func TestBackingAllocFreeReuse(t *testing.T) {
	b := NewBacking(2)
	s1, err := b.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := b.Alloc(); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := b.Alloc(); err != ErrBackingFull {
		t.Fatalf("Alloc over capacity = %v; want ErrBackingFull", err)
	}

	if err := b.Free(s1); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if _, err := b.Alloc(); err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
}

func TestBackingFreeInvalid(t *testing.T) {
	b := NewBacking(2)
	if err := b.Free(99); err != ErrInvalidSlot {
		t.Fatalf("Free(invalid) = %v; want ErrInvalidSlot", err)
	}
}
