package descheap

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestSamplerCacheDedup(t *testing.T) {
	c := NewSamplerCache()
	desc := SamplerDescriptor{
		MinFilter: gputypes.FilterModeLinear,
		MagFilter: gputypes.FilterModeLinear,
	}

	calls := 0
	create := func(slot uint32) error { calls++; return nil }

	slot1, err := c.GetOrCreate(desc, create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	slot2, err := c.GetOrCreate(desc, create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if slot1 != slot2 {
		t.Fatalf("slot1 = %d, slot2 = %d; want identical slots for identical descriptors", slot1, slot2)
	}
	if calls != 1 {
		t.Fatalf("create called %d times; want 1 (deduplicated)", calls)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", c.Len())
	}
}

func TestSamplerCacheDistinctDescriptors(t *testing.T) {
	c := NewSamplerCache()
	a := SamplerDescriptor{MinFilter: gputypes.FilterModeLinear}
	b := SamplerDescriptor{MinFilter: gputypes.FilterModeNearest}

	sa, err := c.GetOrCreate(a, nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	sb, err := c.GetOrCreate(b, nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if sa == sb {
		t.Fatalf("distinct descriptors got the same slot %d", sa)
	}
}

func TestSamplerCacheClear(t *testing.T) {
	c := NewSamplerCache()
	desc := SamplerDescriptor{MinFilter: gputypes.FilterModeLinear}
	if _, err := c.GetOrCreate(desc, nil); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() after Clear = %d; want 0", c.Len())
	}
}
