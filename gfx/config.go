package gfx

import "github.com/embergfx/backend/internal/driver"

// InitFlags configures Init's one-time setup.
type InitFlags struct {
	// Debug enables the driver's debug validation layer and, per
	// SPEC_FULL.md's debug-layer severity supplement, gates the
	// warning-severity half of internal/driver.Context.Report.
	Debug bool

	// LoadCaptureTool mirrors preinit's load-capture-tool flag: probe for
	// (and optionally load) a known capture-tool DLL while Init runs.
	LoadCaptureTool bool

	// Backend selects which of the two registered back-ends Init uses.
	// The zero value, BackendAuto, picks the highest-priority registered
	// backend (see backend.go).
	Backend BackendKind
}

// Limits re-exports internal/driver.Limits under the gfx façade so callers
// never need to import internal packages directly.
type Limits = driver.Limits

// DefaultLimits re-exports internal/driver.DefaultLimits.
func DefaultLimits() Limits { return driver.DefaultLimits() }
