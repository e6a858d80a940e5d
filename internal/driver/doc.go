// Package driver owns the single process-wide GPU context: the native
// device, its queue, and the capability limits negotiated at init time.
//
// gogpu/wgpu/hal exposes a device and a queue as plain interfaces with no
// notion of a shared "current context" the way the original D3D backends
// kept one global d3d/gl struct; driver.Context plays that role explicitly
// so gfx.Init can hand a single value to both back-ends instead of relying
// on package-level globals (spec §9's "global mutable state" design note,
// resolved here in favor of an explicit context).
package driver
