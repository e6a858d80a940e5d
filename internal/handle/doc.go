// Package handle implements the fixed-capacity resource pool that backs every
// opaque handle the gfx façade hands out (buffers, textures, programs,
// framebuffers, queries). Each pool is a slab of T with an intrusive
// free-list threaded through unused slots, so alloc/dealloc never touch the
// allocator.
package handle
