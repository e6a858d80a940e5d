// Package pipeline implements the pipeline-state cache: pipelines are
// looked up by a CRC32 of a packed state tuple, program handle, vertex
// attribute layout, and framebuffer format, and are never evicted once
// created (spec §4.5). The get-or-create shape is adapted from
// backend/native/pipeline_cache_core.go's double-check RWMutex pattern.
package pipeline
