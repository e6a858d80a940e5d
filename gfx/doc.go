// Package gfx is the public façade: a small, explicit rendering API a host
// engine drives directly, implemented over two interchangeable back-ends
// (backend/cmdlist, an explicit command-list style, and backend/immediate,
// an immediate-mode style) that both satisfy the Backend contract in
// backend.go.
//
// Every mutating operation hangs off a *System returned by Init, rather
// than a package-level singleton — the explicit-context re-architecture
// spec.md's design notes call for. Callers are expected to confine calls
// to a single goroutine (the "renderer thread" in the original); System
// asserts this with assertRenderThread and panics on violation. Handle
// allocation (the alloc*Handle family) is exempt and may be called from
// other goroutines; Destroy, which frees a handle's slot, is not exempt.
package gfx
