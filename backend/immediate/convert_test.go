package immediate

import (
	"testing"

	"github.com/embergfx/backend/gfx"
	"github.com/embergfx/backend/internal/pipeline"
	"github.com/gogpu/gputypes"
)

func TestCullModeForMapsState(t *testing.T) {
	s := gfx.NewState(gfx.FlagCullBack, 0, 0, 0xff, 0xff, 0, 0, 0, 0)
	if cullModeFor(s) != gputypes.CullModeBack {
		t.Fatalf("cullModeFor = %v; want CullModeBack", cullModeFor(s))
	}
}

func TestDepthFuncForTieBreak(t *testing.T) {
	s := gfx.NewState(0, 0, 0, 0xff, 0xff, 0, 0, 0, 0)
	if depthFuncFor(s) != pipeline.DepthAlways {
		t.Fatal("depth test disabled should collapse to DepthAlways")
	}
}

func TestTopologyToNativeDefaultsToTriangleList(t *testing.T) {
	if topologyToNative(gfx.PrimitiveTopology(99)) != gputypes.PrimitiveTopologyTriangleList {
		t.Fatal("unknown topology should default to TriangleList")
	}
}

func TestAttrsToKeyPreservesOrder(t *testing.T) {
	attrs := []gfx.AttributeDesc{
		{Location: 2, Offset: 8, Type: gputypes.VertexFormatFloat32},
		{Location: 0, Offset: 0, Type: gputypes.VertexFormatFloat32x3},
	}
	key := attrsToKey(attrs)
	if len(key) != 2 || key[0].Location != 2 || key[1].Location != 0 {
		t.Fatalf("attrsToKey did not preserve input order: %+v", key)
	}
}
