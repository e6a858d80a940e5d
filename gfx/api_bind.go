package gfx

import "github.com/embergfx/backend/internal/handle"

// BindVertexBuffer binds buf to vertex-input slot, starting at offset with
// the given per-element stride (spec §4.6's bindVertexBuffer).
func (s *System) BindVertexBuffer(h BufferHandle, slot int, offset, stride uint32) error {
	s.assertRenderThread()
	res, err := s.buffers.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	s.backend.BindVertexBuffer(slot, res.native, offset, stride)
	return nil
}

// BindIndexBuffer binds buf as the active index buffer with the given
// element width.
func (s *System) BindIndexBuffer(h BufferHandle, indexType IndexType) error {
	s.assertRenderThread()
	res, err := s.buffers.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	s.backend.BindIndexBuffer(res.native, indexType)
	return nil
}

// BindUniformBuffer binds a constant-buffer range to slot (spec §4.6's
// bindUniformBuffer), routed through the descriptor-heap's CBV slot
// (internal/descheap.SlotCBV).
func (s *System) BindUniformBuffer(h BufferHandle, slot int, offset, size uint64) error {
	s.assertRenderThread()
	res, err := s.buffers.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	s.backend.BindUniformBuffer(slot, res.native, offset, size)
	return nil
}

// BindTextures binds a contiguous run of SRV textures starting at offset.
func (s *System) BindTextures(handles []TextureHandle, offset int) error {
	s.assertRenderThread()
	natives := make([]NativeTexture, len(handles))
	for i, h := range handles {
		res, err := s.textures.Get(handle.Handle(h))
		if err != nil {
			return ErrInvalidHandle
		}
		natives[i] = res.native
	}
	s.backend.BindTextures(natives, offset)
	return nil
}

// BindImageTexture binds tex as a UAV-style image at slot (spec §4.6's
// bindImageTexture, used by compute dispatch).
func (s *System) BindImageTexture(h TextureHandle, slot int) error {
	s.assertRenderThread()
	res, err := s.textures.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	s.backend.BindImageTexture(res.native, slot)
	return nil
}

// BindShaderBuffer binds a structured/raw buffer as an SRV or UAV per
// flags (spec §4.6's bindShaderBuffer).
func (s *System) BindShaderBuffer(h BufferHandle, slot int, flags ShaderBufferFlags) error {
	s.assertRenderThread()
	res, err := s.buffers.Get(handle.Handle(h))
	if err != nil {
		return ErrInvalidHandle
	}
	s.backend.BindShaderBuffer(res.native, slot, flags)
	return nil
}
