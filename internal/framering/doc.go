// Package framering implements the N-buffered frame ring: each Frame owns a
// command allocator, a bump-allocated scratch/upload arena, and a deferred
// release list flushed once the GPU has signaled past it. Ring cycles
// through R frames so the CPU can record frame N+1 while the GPU still
// drains frame N.
package framering
