package restate

import "testing"

func TestSetStateNoOpWhenUnchanged(t *testing.T) {
	tr := New()
	tr.Track(1, StateCommon)

	_, needs := tr.SetState(1, StateCommon)
	if needs {
		t.Fatalf("needsBarrier = true for identical state; want false")
	}
}

func TestSetStateTransitions(t *testing.T) {
	tr := New()
	tr.Track(1, StateCommon)

	old, needs := tr.SetState(1, StateRenderTarget)
	if !needs {
		t.Fatalf("needsBarrier = false; want true")
	}
	if old != StateCommon {
		t.Fatalf("old = %v; want StateCommon", old)
	}
	if tr.Current(1) != StateRenderTarget {
		t.Fatalf("Current = %v; want StateRenderTarget", tr.Current(1))
	}
}

func TestScopedRestoresState(t *testing.T) {
	tr := New()
	tr.Track(1, StatePixelShaderResource)

	var transitions []Transition
	emit := func(tr Transition) { transitions = append(transitions, tr) }

	ran := false
	tr.Scoped(1, StateCopyDest, emit, func() {
		ran = true
		if tr.Current(1) != StateCopyDest {
			t.Fatalf("Current inside Scoped = %v; want StateCopyDest", tr.Current(1))
		}
	})

	if !ran {
		t.Fatalf("fn was not called")
	}
	if tr.Current(1) != StatePixelShaderResource {
		t.Fatalf("Current after Scoped = %v; want restored to StatePixelShaderResource", tr.Current(1))
	}
	if len(transitions) != 2 {
		t.Fatalf("len(transitions) = %d; want 2 (into and back out)", len(transitions))
	}
}

func TestUntrack(t *testing.T) {
	tr := New()
	tr.Track(1, StateCommon)
	tr.Untrack(1)
	if tr.Current(1) != StateCommon {
		t.Fatalf("Current(untracked) = %v; want zero value StateCommon", tr.Current(1))
	}
}
