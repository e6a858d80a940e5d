// Package descheap implements the descriptor-heap allocators that back
// shader bindings: a shader-visible ring that advances one window per
// frame, a non-shader-visible backing store with its own free list, and a
// sampler cache that deduplicates identical sampler descriptors so the
// backing heap never grows past its configured bound.
package descheap
