package restate

import "sync"

// State enumerates the resource usage states the tracker distinguishes.
// wgpu-hal (the pack's native driver abstraction) hides explicit transition
// barriers behind implicit usage tracking, so there is no pack type to
// reuse here; State mirrors the original's D3D12_RESOURCE_STATES subset
// that this backend actually needs (see DESIGN.md).
type State uint32

const (
	StateCommon State = iota
	StateVertexAndConstantBuffer
	StateIndexBuffer
	StateRenderTarget
	StateUnorderedAccess
	StateDepthWrite
	StateDepthRead
	StateNonPixelShaderResource
	StatePixelShaderResource
	StateCopyDest
	StateCopySource
	StatePresent
)

// Transition describes a state change the caller must translate into a
// native barrier before the next GPU operation touching the resource.
type Transition struct {
	Before State
	After  State
}

// Tracker records the current state of every resource it has been told
// about, keyed by an opaque identity (normally a handle.Handle boxed as
// uint32, but the tracker is agnostic to what the key represents).
type Tracker struct {
	mu     sync.Mutex
	states map[uint32]State
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{states: make(map[uint32]State)}
}

// Track registers id at its initial state, replacing any state already
// recorded for id without a transition. Call once when a resource is
// created.
func (t *Tracker) Track(id uint32, initial State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[id] = initial
}

// Untrack forgets id, normally called when the resource is destroyed.
func (t *Tracker) Untrack(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, id)
}

// SetState updates id's tracked state to next and returns the state it held
// before, along with whether a transition is actually required. Mirrors
// Texture::setState in the original: no-op (needsBarrier=false) when the
// resource is already in the requested state, so callers never emit a
// redundant barrier.
func (t *Tracker) SetState(id uint32, next State) (old State, needsBarrier bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	old = t.states[id]
	if old == next {
		return old, false
	}
	t.states[id] = next
	return old, true
}

// Current returns id's currently tracked state.
func (t *Tracker) Current(id uint32) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[id]
}

// Scoped transitions id to next for the duration of fn, then restores it to
// whatever state it held beforehand — the scoped acquire/restore pattern
// spec §4.4 calls for around temporary usages such as a texture bound as
// both a copy destination and, immediately after, a shader resource.
func (t *Tracker) Scoped(id uint32, next State, emit func(Transition), fn func()) {
	old, needs := t.SetState(id, next)
	if needs {
		emit(Transition{Before: old, After: next})
	}
	fn()
	if restoreNeeds := old != next; restoreNeeds {
		t.mu.Lock()
		t.states[id] = old
		t.mu.Unlock()
		emit(Transition{Before: next, After: old})
	}
}
