package driver

import types "github.com/gogpu/gputypes"

// Limits is the subset of the native adapter's capability limits that the
// back-ends consult when sizing pools, heaps, and scratch arenas. It is
// deliberately narrower than types.Limits: only the fields a resource
// allocator actually branches on are carried forward.
type Limits struct {
	MaxBufferSize            uint64
	MaxComputeWorkgroupSizeX uint32
	MaxComputeWorkgroupSizeY uint32
	MaxComputeWorkgroupSizeZ uint32
}

// limitsFromNative narrows a types.Limits down to the fields driver cares
// about. Called once at Context construction.
func limitsFromNative(l types.Limits) Limits {
	return Limits{
		MaxBufferSize:            l.MaxBufferSize,
		MaxComputeWorkgroupSizeX: l.MaxComputeWorkgroupSizeX,
		MaxComputeWorkgroupSizeY: l.MaxComputeWorkgroupSizeY,
		MaxComputeWorkgroupSizeZ: l.MaxComputeWorkgroupSizeZ,
	}
}

// DefaultLimits returns the limits types.DefaultLimits() reports, narrowed
// to the Limits shape. Used when the caller does not probe the adapter
// before calling NewContext (tests, CPU-only fallback paths).
func DefaultLimits() Limits {
	return limitsFromNative(types.DefaultLimits())
}
