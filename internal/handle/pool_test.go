package handle

import "testing"

func TestAllocDeallocReuse(t *testing.T) {
	p := New[int](4)

	h1, err := p.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	h2, err := p.Alloc(20)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if v, err := p.Get(h1); err != nil || v != 10 {
		t.Fatalf("Get(h1) = %d, %v; want 10, nil", v, err)
	}

	if err := p.Dealloc(h1); err != nil {
		t.Fatalf("Dealloc: %v", err)
	}

	// Stale handle must now be rejected even though the slot is reused.
	h3, err := p.Alloc(30)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := p.Get(h1); err != ErrInvalidHandle {
		t.Fatalf("Get(stale h1) = %v; want ErrInvalidHandle", err)
	}
	if v, err := p.Get(h3); err != nil || v != 30 {
		t.Fatalf("Get(h3) = %d, %v; want 30, nil", v, err)
	}
	if v, err := p.Get(h2); err != nil || v != 20 {
		t.Fatalf("Get(h2) = %d, %v; want 20, nil", v, err)
	}
}

func TestPoolFull(t *testing.T) {
	p := New[int](2)
	if _, err := p.Alloc(1); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := p.Alloc(2); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if !p.IsFull() {
		t.Fatalf("IsFull() = false; want true")
	}
	if _, err := p.Alloc(3); err != ErrPoolFull {
		t.Fatalf("Alloc on full pool = %v; want ErrPoolFull", err)
	}
}

func TestDeallocInvalid(t *testing.T) {
	p := New[int](2)
	if err := p.Dealloc(Handle(999)); err != ErrInvalidHandle {
		t.Fatalf("Dealloc(invalid) = %v; want ErrInvalidHandle", err)
	}

	h, _ := p.Alloc(1)
	if err := p.Dealloc(h); err != nil {
		t.Fatalf("Dealloc: %v", err)
	}
	if err := p.Dealloc(h); err != ErrInvalidHandle {
		t.Fatalf("double Dealloc = %v; want ErrInvalidHandle", err)
	}
}

func TestEach(t *testing.T) {
	p := New[string](4)
	ha, _ := p.Alloc("a")
	hb, _ := p.Alloc("b")
	_ = p.Dealloc(ha)

	seen := map[Handle]string{}
	p.Each(func(h Handle, v string) {
		seen[h] = v
	})

	if len(seen) != 1 || seen[hb] != "b" {
		t.Fatalf("Each visited %v; want only {%v: b}", seen, hb)
	}
}

func TestLenAndCapacity(t *testing.T) {
	p := New[int](8)
	if p.Capacity() != 8 {
		t.Fatalf("Capacity() = %d; want 8", p.Capacity())
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Alloc(i); err != nil {
			t.Fatalf("Alloc: %v", err)
		}
	}
	if p.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", p.Len())
	}
}
