package framering

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// infiniteWait mirrors the original's WaitForSingleObject(fence_event,
// INFINITE) (gpu_dx12.cpp:400): retiring a frame slot is the renderer's
// sole blocking point, and it has no timeout to fail out of.
const infiniteWait = time.Duration(math.MaxInt64)

// Releasable is anything a Frame can defer-destroy: a native resource whose
// Destroy call is safe only after the GPU is done reading it.
type Releasable interface {
	Destroy()
}

// Frame is one slot of the frame ring: a command encoder, a scratch arena
// for CPU-visible uploads, a list of resources queued for destruction once
// the frame's fence signals, and the fence itself. Mirrors Frame::init/
// begin/end/wait in the original.
type Frame struct {
	device  hal.Device
	queue   hal.Queue
	encoder hal.CommandEncoder
	arena   *Arena

	mu        sync.Mutex
	toRelease []Releasable
	fence     hal.Fence
	fenceSet  bool
}

// NewFrame creates a Frame backed by device/queue, allocating a fresh
// command encoder and a ScratchSize scratch arena.
func NewFrame(device hal.Device, queue hal.Queue) (*Frame, error) {
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("framering: create command encoder: %w", err)
	}
	return &Frame{
		device:  device,
		queue:   queue,
		encoder: enc,
		arena:   NewArena(ScratchSize),
	}, nil
}

// Encoder returns the frame's command encoder for recording.
func (f *Frame) Encoder() hal.CommandEncoder { return f.encoder }

// Arena returns the frame's scratch/upload arena.
func (f *Frame) Arena() *Arena { return f.arena }

// Release queues r for destruction the next time this frame slot comes
// back around the ring, once Begin has confirmed the GPU is done with the
// work that referenced it.
func (f *Frame) Release(r Releasable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toRelease = append(f.toRelease, r)
}

// Begin waits for this frame slot's previous fence (if any), then destroys
// every resource queued via Release and resets the scratch arena. Call
// once at the start of recording a new use of this frame slot.
func (f *Frame) Begin() error {
	if err := f.wait(); err != nil {
		return err
	}

	f.mu.Lock()
	pending := f.toRelease
	f.toRelease = nil
	f.mu.Unlock()

	for _, r := range pending {
		r.Destroy()
	}
	f.arena.Reset()
	return nil
}

func (f *Frame) wait() error {
	f.mu.Lock()
	fence, ok := f.fence, f.fenceSet
	f.fenceSet = false
	f.mu.Unlock()

	if !ok {
		return nil
	}
	if _, err := f.device.Wait(fence, 1, infiniteWait); err != nil {
		return fmt.Errorf("framering: wait fence: %w", err)
	}
	f.device.DestroyFence(fence)
	return nil
}

// End closes the command encoder, submits it to the queue, and records a
// fence that the frame's next Begin will wait on before reusing this slot.
func (f *Frame) End() error {
	buf, err := f.encoder.Finish()
	if err != nil {
		return fmt.Errorf("framering: finish encoder: %w", err)
	}

	fence, err := f.device.CreateFence()
	if err != nil {
		return fmt.Errorf("framering: create fence: %w", err)
	}

	if err := f.queue.Submit([]hal.CommandBuffer{buf}, fence, 1); err != nil {
		f.device.DestroyFence(fence)
		return fmt.Errorf("framering: submit: %w", err)
	}

	f.mu.Lock()
	f.fence = fence
	f.fenceSet = true
	f.mu.Unlock()

	enc, err := f.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{})
	if err != nil {
		return fmt.Errorf("framering: create next command encoder: %w", err)
	}
	f.encoder = enc
	return nil
}
