package framering

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Depth is the number of in-flight frames the ring buffers (R in spec §4.3).
const Depth = 3

// Ring cycles through Depth Frame slots so the CPU can be recording frame
// N+1 while the GPU is still draining frame N.
type Ring struct {
	frames  [Depth]*Frame
	current int
}

// NewRing creates a Ring with Depth frames, each backed by device/queue.
func NewRing(device hal.Device, queue hal.Queue) (*Ring, error) {
	r := &Ring{}
	for i := range r.frames {
		f, err := NewFrame(device, queue)
		if err != nil {
			return nil, fmt.Errorf("framering: init frame %d: %w", i, err)
		}
		r.frames[i] = f
	}
	return r, nil
}

// Current returns the frame slot currently being recorded into.
func (r *Ring) Current() *Frame {
	return r.frames[r.current]
}

// Index returns the slot index of the frame currently being recorded into.
func (r *Ring) Index() int {
	return r.current
}

// Advance ends the current frame and waits for the next slot's previous
// fence before returning it, matching the original's begin()/end() pairing
// across consecutive frames.
func (r *Ring) Advance() (*Frame, error) {
	if err := r.frames[r.current].End(); err != nil {
		return nil, err
	}
	r.current = (r.current + 1) % Depth
	next := r.frames[r.current]
	if err := next.Begin(); err != nil {
		return nil, err
	}
	return next, nil
}

// WaitIdle waits for every frame slot's in-flight fence to signal. Used
// before operations that require the GPU to be fully idle, such as
// clearing the sampler cache (DESIGN.md Open Question 2).
func (r *Ring) WaitIdle() error {
	for _, f := range r.frames {
		if err := f.wait(); err != nil {
			return err
		}
	}
	return nil
}
