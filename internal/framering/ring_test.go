package framering

import "testing"

func TestFrameEndAdvancesFenceAndEncoder(t *testing.T) {
	dev := &mockHALDevice{}
	q := &mockHALQueue{}

	f, err := NewFrame(dev, q)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	if err := f.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if q.submits != 1 {
		t.Fatalf("submits = %d; want 1", q.submits)
	}

	if err := f.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if dev.fenceWaits != 1 {
		t.Fatalf("fenceWaits = %d; want 1", dev.fenceWaits)
	}
}

func TestFrameReleaseFlushedOnBegin(t *testing.T) {
	dev := &mockHALDevice{}
	q := &mockHALQueue{}
	f, err := NewFrame(dev, q)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	destroyed := false
	f.Release(releasableFunc(func() { destroyed = true }))

	if err := f.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := f.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !destroyed {
		t.Fatalf("queued release was not destroyed on Begin")
	}
}

type releasableFunc func()

func (f releasableFunc) Destroy() { f() }

func TestRingAdvanceCycles(t *testing.T) {
	dev := &mockHALDevice{}
	q := &mockHALQueue{}

	r, err := NewRing(dev, q)
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}

	first := r.Current()
	for i := 0; i < Depth; i++ {
		if _, err := r.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if r.Current() != first {
		t.Fatalf("after Depth advances, ring should be back at the first frame slot")
	}
	if q.submits != Depth {
		t.Fatalf("submits = %d; want %d", q.submits, Depth)
	}
}

func TestRingWaitIdle(t *testing.T) {
	dev := &mockHALDevice{}
	q := &mockHALQueue{}
	r, err := NewRing(dev, q)
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	if _, err := r.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := r.WaitIdle(); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}
