package gfx

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID and assertRenderThread stand in for the original's
// GetCurrentThreadId() == renderer_thread_id assertion (spec §5). Go has
// no supported public API for a goroutine identity, and nothing in the
// retrieval pack solves this (native OS threads, not goroutines, are what
// gogpu/wgpu's own thread-affinity requirements — if any — would apply
// to); parsing the goroutine id out of runtime.Stack is the standard
// stdlib-only workaround for this specific, narrow need. It runs on every
// call that asserts the renderer thread; there is no build-mode switch.
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// The header line looks like "goroutine 123 [running]:".
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// assertRenderThread panics with ErrWrongThread if called from a goroutine
// other than the one that created s. Most System methods call this first;
// the alloc*Handle family, CreateWindow, WaitFrame, GetQueryResult,
// Shutdown, and Context do not.
func (s *System) assertRenderThread() {
	if currentGoroutineID() != s.renderGoroutine {
		panic(ErrWrongThread)
	}
}
