//go:build !windows

package capture

// Probe is a no-op outside Windows: the D3D-oriented capture tools the
// original targets (RenderDoc's D3D hook, PIX) have no equivalent probe on
// other platforms.
func Probe(load bool) Handle {
	return Handle{Tool: ToolNone, Close: func() {}}
}
