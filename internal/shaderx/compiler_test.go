package shaderx

import (
	"strings"
	"testing"
)

func TestPreprocessOrdersDefinesPrefixesAndAttributes(t *testing.T) {
	src := Source{
		Stage:      StageFragment,
		Code:       "void main() {}",
		Prefixes:   []string{"#define MAX_LIGHTS 4"},
		Attributes: []string{"position", "normal"},
	}

	out := preprocess(src)

	wantOrder := []string{"#define FRAGMENT", "#define MAX_LIGHTS 4", "#define _HAS_ATTR0", "#define _HAS_ATTR1", "void main() {}"}
	lastIdx := -1
	for _, w := range wantOrder {
		idx := strings.Index(out, w)
		if idx < 0 {
			t.Fatalf("preprocess output missing %q:\n%s", w, out)
		}
		if idx < lastIdx {
			t.Fatalf("%q appeared out of order:\n%s", w, out)
		}
		lastIdx = idx
	}
}

func TestStageDefine(t *testing.T) {
	cases := map[Stage]string{
		StageVertex:   "VERTEX",
		StageFragment: "FRAGMENT",
		StageGeometry: "GEOMETRY",
		StageCompute:  "COMPUTE",
	}
	for stage, want := range cases {
		if got := stage.define(); got != want {
			t.Errorf("Stage(%d).define() = %q; want %q", stage, got, want)
		}
	}
}
