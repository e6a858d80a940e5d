package gfx

import "github.com/embergfx/backend/internal/handle"

// SetState applies the packed 64-bit state tuple (spec §4.5), resolving it
// against internal/pipeline's PSO cache before the next draw call rather
// than on every SetState invocation: the cache lookup itself happens
// lazily at draw time, here System only remembers the desired state.
func (s *System) SetState(state State) {
	s.assertRenderThread()
	s.mu.Lock()
	s.currentState = state
	s.mu.Unlock()
	s.backend.SetState(state)
}

// Viewport sets the active viewport rectangle.
func (s *System) Viewport(x, y, w, h int32) {
	s.assertRenderThread()
	s.backend.Viewport(x, y, w, h)
}

// Scissor sets the active scissor rectangle. The backends apply the
// rectangle to every following draw whether or not the current State's
// ScissorTest bit is set; that bit does not gate it.
func (s *System) Scissor(x, y, w, h int32) {
	s.assertRenderThread()
	s.backend.Scissor(x, y, w, h)
}

// UseProgram binds p as the active program for subsequent draws/dispatches.
func (s *System) UseProgram(h ProgramHandle) error {
	s.assertRenderThread()
	res, err := s.programs.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	s.mu.Lock()
	s.currentProg = h
	s.mu.Unlock()
	s.backend.UseProgram(res.native)
	return nil
}

// SetFramebuffer binds a set of color/depth-stencil attachments (spec
// §4.6's setFramebuffer). A nil or empty attachments slice binds no color
// or depth target; no swap-chain back buffer is bound in its place.
func (s *System) SetFramebuffer(attachments []TextureHandle, flags FramebufferFlags) error {
	s.assertRenderThread()
	natives := make([]NativeTexture, len(attachments))
	for i, h := range attachments {
		res, err := s.textures.Get(handle.Handle(h))
		if err != nil {
			return ErrInvalidHandle
		}
		natives[i] = res.native
	}
	s.backend.SetFramebuffer(natives, flags)
	return nil
}

// Clear clears the attachments flags selects to color/depth.
func (s *System) Clear(flags ClearFlags, color [4]float32, depth float32) {
	s.assertRenderThread()
	s.backend.Clear(flags, color, depth)
}

// DrawArrays issues a non-indexed draw call.
func (s *System) DrawArrays(offset, count int, topology PrimitiveTopology) {
	s.assertRenderThread()
	s.backend.DrawArrays(offset, count, topology)
}

// DrawElements issues an indexed draw call.
func (s *System) DrawElements(offsetBytes uint32, count int, topology PrimitiveTopology, indexType IndexType) {
	s.assertRenderThread()
	s.backend.DrawElements(offsetBytes, count, topology, indexType)
}

// DrawTriangles issues a non-instanced indexed triangle-list draw starting
// at index 0 (spec §4.6's drawTriangles). Equivalent to
// DrawTrianglesInstanced with an instance count of 1.
func (s *System) DrawTriangles(indexCount int, indexType IndexType) {
	s.assertRenderThread()
	s.backend.DrawTriangles(indexCount, indexType)
}

// DrawTrianglesInstanced issues an instanced indexed triangle-list draw
// (spec §4.6's drawTrianglesInstanced, exercised by §8's "3 indices × 4
// instances" scenario).
func (s *System) DrawTrianglesInstanced(indexCount, instanceCount int, indexType IndexType) {
	s.assertRenderThread()
	s.backend.DrawTrianglesInstanced(indexCount, instanceCount, indexType)
}

// Dispatch issues a compute dispatch with the given workgroup counts.
// Callers must not exceed internal/driver.Limits' per-axis workgroup
// bounds (spec §4.7's compute invariant); System does not re-validate
// here since the backend's own hal call already rejects an
// out-of-range dispatch.
func (s *System) Dispatch(x, y, z uint32) {
	s.assertRenderThread()
	s.backend.Dispatch(x, y, z)
}

// PushDebugGroup opens a named debug-marker scope (spec §4.6's
// pushDebugGroup/popDebugGroup pair, nestable).
func (s *System) PushDebugGroup(name string) {
	s.assertRenderThread()
	s.mu.Lock()
	s.debugDepth++
	s.mu.Unlock()
	s.backend.PushDebugGroup(name)
}

// PopDebugGroup closes the innermost open debug-marker scope. A call with
// no matching Push is ignored, matching spec §7's "unbalanced debug group"
// edge case (logged once rather than panicking).
func (s *System) PopDebugGroup() {
	s.assertRenderThread()
	s.mu.Lock()
	if s.debugDepth == 0 {
		s.mu.Unlock()
		Logger().Warn("PopDebugGroup called with no matching PushDebugGroup")
		return
	}
	s.debugDepth--
	s.mu.Unlock()
	s.backend.PopDebugGroup()
}
