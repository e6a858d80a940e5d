package gfx

import (
	"fmt"

	"github.com/embergfx/backend/internal/ddsimage"
	"github.com/embergfx/backend/internal/handle"
	"github.com/embergfx/backend/internal/mipgen"
	"github.com/embergfx/backend/internal/shaderx"
	"github.com/gogpu/wgpu/hal"
)

// AllocBufferHandle reserves a buffer slot under the handle-pool mutex
// (spec §6's "thread-safe" alloc*Handle family — the one operation allowed
// to cross goroutines). On exhaustion it returns InvalidBuffer and logs
// once, matching spec §7's *resource full* clause.
func (s *System) AllocBufferHandle() BufferHandle {
	h, err := s.buffers.Alloc(bufferResource{})
	if err != nil {
		Logger().Error("buffer handle pool exhausted", "capacity", s.buffers.Capacity())
		return InvalidBuffer
	}
	return BufferHandle(h)
}

// AllocTextureHandle reserves a texture slot; see AllocBufferHandle.
func (s *System) AllocTextureHandle() TextureHandle {
	h, err := s.textures.Alloc(textureResource{})
	if err != nil {
		Logger().Error("texture handle pool exhausted", "capacity", s.textures.Capacity())
		return InvalidTexture
	}
	return TextureHandle(h)
}

// AllocProgramHandle reserves a program slot; see AllocBufferHandle.
func (s *System) AllocProgramHandle() ProgramHandle {
	h, err := s.programs.Alloc(programResource{})
	if err != nil {
		Logger().Error("program handle pool exhausted", "capacity", s.programs.Capacity())
		return InvalidProgram
	}
	return ProgramHandle(h)
}

// AllocQueryHandle reserves a query slot (SPEC_FULL.md's query-pool
// supplement).
func (s *System) AllocQueryHandle() QueryHandle {
	h, err := s.queries.Alloc(queryResource{})
	if err != nil {
		Logger().Error("query handle pool exhausted", "capacity", s.queries.Capacity())
		return InvalidQuery
	}
	return QueryHandle(h)
}

// CreateBuffer fills a previously allocated handle with a native buffer
// (spec §4.6's createBuffer contract): mappable buffers go to an
// upload-visible heap, SHADER_BUFFER sizes round up to a 16-byte multiple,
// and a slot is reserved for the buffer in the backing heap (no view is
// written into it). If data is non-nil it is uploaded through the
// backend's queue write path.
func (s *System) CreateBuffer(h BufferHandle, flags BufferFlags, size uint64, data []byte) error {
	s.assertRenderThread()

	if flags&BufferShader != 0 {
		size = (size + 15) &^ 15
	}

	native, err := s.backend.CreateBuffer(size, flags, data)
	if err != nil {
		return fmt.Errorf("gfx: create buffer: %w", err)
	}

	heapID, err := s.backing.Alloc()
	if err != nil {
		s.backend.DestroyBuffer(native)
		return fmt.Errorf("gfx: allocate buffer SRV: %w", err)
	}

	stateID := s.ids.alloc()
	s.state.Track(stateID, defaultState)

	res := bufferResource{
		native:  native,
		size:    size,
		flags:   flags,
		heapID:  heapID,
		stateID: stateID,
	}
	if err := s.buffers.Set(handle.Handle(h), res); err != nil {
		s.backend.DestroyBuffer(native)
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	return nil
}

// CreateTexture fills a previously allocated handle with a native texture
// (spec §4.6's createTexture contract). If data is non-nil, a CPU mip
// chain is generated via internal/mipgen and handed to the backend, which
// writes only mip level 0 of it; the other levels are not uploaded.
func (s *System) CreateTexture(h TextureHandle, width, height, depth uint32, flags TextureFlags, data []byte, name string) error {
	s.assertRenderThread()

	mips := mipCount(width, height, depth, flags)

	var upload []byte
	if data != nil {
		levels := mipgen.Generate(rgbaFromBytes(width, height, data), mipgenKind(flags))
		upload = flattenLevels(levels)
	}

	desc := TextureDesc{
		Width:         width,
		Height:        height,
		Depth:         depth,
		MipLevelCount: mips,
		Flags:         flags,
		Name:          name,
	}
	native, err := s.backend.CreateTexture(desc, upload)
	if err != nil {
		return fmt.Errorf("gfx: create texture: %w", err)
	}

	heapID, err := s.backing.Alloc()
	if err != nil {
		s.backend.DestroyTexture(native)
		return fmt.Errorf("gfx: allocate texture SRV: %w", err)
	}

	stateID := s.ids.alloc()
	s.state.Track(stateID, defaultState)

	res := textureResource{
		native:  native,
		width:   width,
		height:  height,
		depth:   depth,
		mips:    mips,
		flags:   flags,
		heapID:  heapID,
		stateID: stateID,
		name:    name,
	}
	if err := s.textures.Set(handle.Handle(h), res); err != nil {
		s.backend.DestroyTexture(native)
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	return nil
}

// LoadTexture parses a DDS-family container blob and creates a texture
// from it (spec §4.6/§4.8). Compressed formats compute their row pitch
// from the block size. The blob's image data is handed to the backend
// whole, but only mip level 0 is written; the other levels are not
// uploaded.
func (s *System) LoadTexture(h TextureHandle, blob []byte, flags TextureFlags, name string) error {
	s.assertRenderThread()

	hdr, err := ddsimage.Decode(blob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if hdr.DataOffset > len(blob) {
		return fmt.Errorf("%w: ddsimage: pixel data offset past end of blob", ErrUnsupportedFormat)
	}

	if hdr.IsCubemap {
		flags |= TextureCube
	}

	desc := TextureDesc{
		Width:         uint32(hdr.Width),
		Height:        uint32(hdr.Height),
		Depth:         uint32(hdr.Depth),
		MipLevelCount: uint32(hdr.MipMapCount),
		Format:        ddsFormatToNative(hdr.Format),
		Flags:         flags,
		Name:          name,
	}
	native, err := s.backend.CreateTexture(desc, blob[hdr.DataOffset:])
	if err != nil {
		return fmt.Errorf("gfx: load texture: %w", err)
	}

	heapID, err := s.backing.Alloc()
	if err != nil {
		s.backend.DestroyTexture(native)
		return fmt.Errorf("gfx: allocate texture SRV: %w", err)
	}
	stateID := s.ids.alloc()
	s.state.Track(stateID, defaultState)

	res := textureResource{
		native:  native,
		width:   desc.Width,
		height:  desc.Height,
		depth:   desc.Depth,
		mips:    desc.MipLevelCount,
		flags:   flags,
		heapID:  heapID,
		stateID: stateID,
		name:    name,
	}
	if err := s.textures.Set(handle.Handle(h), res); err != nil {
		s.backend.DestroyTexture(native)
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	return nil
}

// CreateProgram compiles every stage's source via internal/shaderx and
// links the result into a native program (spec §4.6/§4.7). Returns false
// (rather than an error) on build failure, matching spec §7's
// "program-create returns false, info log forwarded to logger" clause.
func (s *System) CreateProgram(h ProgramHandle, sources []shaderx.Source, attributes []AttributeDesc, name string) bool {
	s.assertRenderThread()

	modules := make(map[shaderx.Stage]hal.ShaderModule, len(sources))
	for _, src := range sources {
		compiled, err := s.shaders.Compile(src)
		if err != nil {
			Logger().Error("shader stage compile failed", "name", name, "stage", src.Stage, "err", err)
			return false
		}
		modules[src.Stage] = compiled.Module
	}

	desc := ProgramDesc{Modules: modules, Attributes: attributes, Name: name}
	native, err := s.backend.CreateProgram(desc)
	if err != nil {
		Logger().Error("program build failed", "name", name, "err", err)
		return false
	}

	res := programResource{native: native, attributes: attributes, name: name}
	if err := s.programs.Set(handle.Handle(h), res); err != nil {
		s.backend.DestroyProgram(native)
		Logger().Error("program handle invalid at link time", "name", name, "err", err)
		return false
	}
	return true
}

// Destroy queues the handle's native object onto the current frame's
// release list and frees the handle slot immediately (spec §4.6's destroy
// contract): the slot is reusable right away even though the native
// object survives until the owning frame retires.
func (s *System) Destroy(h any) {
	s.assertRenderThread()

	switch v := h.(type) {
	case BufferHandle:
		res, err := s.buffers.Get(handle.Handle(v))
		if err != nil {
			return
		}
		s.state.Untrack(res.stateID)
		_ = s.backing.Free(res.heapID)
		s.backend.DestroyBuffer(res.native)
		_ = s.buffers.Dealloc(handle.Handle(v))
	case TextureHandle:
		res, err := s.textures.Get(handle.Handle(v))
		if err != nil {
			return
		}
		s.state.Untrack(res.stateID)
		_ = s.backing.Free(res.heapID)
		s.backend.DestroyTexture(res.native)
		_ = s.textures.Dealloc(handle.Handle(v))
	case ProgramHandle:
		res, err := s.programs.Get(handle.Handle(v))
		if err != nil {
			return
		}
		s.backend.DestroyProgram(res.native)
		_ = s.programs.Dealloc(handle.Handle(v))
	}
}
