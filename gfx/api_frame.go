package gfx

import (
	"fmt"

	"github.com/embergfx/backend/internal/handle"
)

// SwapBuffers ends the current frame and advances the frame ring (spec
// §4.6's swapBuffers); no swap chain is presented, since no window's back
// buffer is ever created or bound. It returns the index of the frame
// slot that was just retired so callers can correlate release-list
// bookkeeping across calls.
func (s *System) SwapBuffers() (int, error) {
	s.assertRenderThread()
	idx, err := s.backend.SwapBuffers()
	if err != nil {
		return 0, fmt.Errorf("gfx: swap buffers: %w", err)
	}
	s.ring.NextFrame()
	return idx, nil
}

// SetCurrentWindow records h as the current window (SPEC_FULL.md's
// supplemented multiple-swapchain feature; spec.md itself assumes a
// single window). It returns ErrNoWindow if h does not resolve to a
// registered window. The recorded window is not read by SetFramebuffer or
// SwapBuffers.
func (s *System) SetCurrentWindow(h WindowHandle) error {
	s.assertRenderThread()
	if _, err := s.windows.Get(handle.Handle(h)); err != nil {
		return ErrNoWindow
	}
	s.mu.Lock()
	s.currentWin = h
	s.mu.Unlock()
	return nil
}

// CreateWindow registers hwnd in the window table and returns its handle
// (SPEC_FULL.md's multiple-swapchain supplement). Only the hwnd value is
// stored; no swap chain is created for it.
func (s *System) CreateWindow(hwnd uintptr) (WindowHandle, error) {
	h, err := s.windows.Alloc(windowState{hwnd: hwnd})
	if err != nil {
		return InvalidWindow, fmt.Errorf("gfx: create window: %w", err)
	}
	return WindowHandle(h), nil
}

// WaitFrame blocks until the frame ring slot index has finished executing
// on the GPU (spec §4.6's waitFrame), used before reusing that slot's
// scratch arena or release list.
func (s *System) WaitFrame(index int) error {
	if err := s.backend.WaitFrame(index); err != nil {
		return fmt.Errorf("gfx: wait frame: %w", err)
	}
	return nil
}

// StartCapture opens a named debug-marker scope that a capture tool
// discovered at Init (internal/capture) can use as a capture-bounds
// signal; this backend does not drive a capture tool's programmatic
// trigger API, only the DLL-presence probe SPEC_FULL.md scopes capture-
// tool integration down to (Non-goals: "capture-tool integration beyond
// the [DLL probe]").
func (s *System) StartCapture() {
	s.assertRenderThread()
	if s.capture.Tool == 0 {
		Logger().Debug("StartCapture: no capture tool detected at init")
	}
	s.PushDebugGroup("capture")
}

// StopCapture closes the debug-marker scope StartCapture opened.
func (s *System) StopCapture() {
	s.assertRenderThread()
	s.PopDebugGroup()
}

// BeginQuery starts a GPU timestamp query against a previously allocated
// handle (SPEC_FULL.md's query-pool supplement, absent from spec.md's own
// operation table).
func (s *System) BeginQuery(h QueryHandle) error {
	s.assertRenderThread()
	res, err := s.queries.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	res.active = true
	res.ready = false
	return s.queries.Set(handle.Handle(h), res)
}

// EndQuery ends a previously started query and marks it ready at once. No
// GPU timestamp is written for the query, so its result stays 0; see
// GetQueryResult.
func (s *System) EndQuery(h QueryHandle) error {
	s.assertRenderThread()
	res, err := s.queries.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	if !res.active {
		return fmt.Errorf("gfx: EndQuery called without a matching BeginQuery")
	}
	res.active = false
	res.ready = true
	return s.queries.Set(handle.Handle(h), res)
}

// GetQueryResult returns a query's stored result and whether it is ready.
// ready is false until EndQuery has been called for the query (and again
// after the next BeginQuery); the stored result is always 0, since nothing
// records a GPU timestamp into it.
func (s *System) GetQueryResult(h QueryHandle) (result uint64, ready bool, err error) {
	res, getErr := s.queries.Get(handle.Handle(h))
	if getErr != nil {
		return 0, false, ErrInvalidHandle
	}
	return res.result, res.ready, nil
}
