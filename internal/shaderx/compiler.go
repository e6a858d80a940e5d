package shaderx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Stage identifies which shader stage a source fragment belongs to.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
	StageGeometry
	StageCompute
)

func (s Stage) define() string {
	switch s {
	case StageVertex:
		return "VERTEX"
	case StageFragment:
		return "FRAGMENT"
	case StageGeometry:
		return "GEOMETRY"
	case StageCompute:
		return "COMPUTE"
	default:
		return ""
	}
}

// ErrWorkgroupCountBuiltin is returned when a compute shader references a
// workgroup-count builtin, which this backend's target has no equivalent
// for (spec §4.7 invariant).
var ErrWorkgroupCountBuiltin = errors.New("shaderx: compute shader references unsupported workgroup-count builtin")

// Source is one stage's high-level shading source plus its declared vertex
// attributes, used to synthesize the _HAS_ATTRN defines spec §4.7 step 1
// requires.
type Source struct {
	Stage      Stage
	Code       string
	Prefixes   []string
	Attributes []string // vertex attribute names declared for this program
}

// Compiler cross-compiles high-level shading source via naga: parse to IR,
// emit SPIR-V, and cross-compile SPIR-V to native shader text. The shader
// module is created from the SPIR-V; the native text is kept in the result
// but is not passed to a driver shader compiler.
type Compiler struct {
	device hal.Device
}

// New creates a Compiler that creates native shader modules on device.
func New(device hal.Device) *Compiler {
	return &Compiler{device: device}
}

// Compiled holds the result of compiling one stage: the emitted SPIR-V (for
// diagnostics/caching), the cross-compiled native source, and the resulting
// driver shader module.
type Compiled struct {
	SPIRV      []byte
	NativeText string
	Module     hal.ShaderModule
}

// Compile runs a stage's source through the full spec §4.7 pipeline.
func (c *Compiler) Compile(src Source) (*Compiled, error) {
	preprocessed := preprocess(src)

	frontend := naga.NewGLSLFrontend(naga.GLSLOptions{
		Stage:  stageToNaga(src.Stage),
		Client: naga.ClientOpenGL,
	})
	module, err := frontend.Parse(preprocessed)
	if err != nil {
		return nil, fmt.Errorf("shaderx: parse stage %v: %w", src.Stage, err)
	}

	if src.Stage == StageCompute {
		if module.HasBuiltin(naga.BuiltinWorkgroupCount) {
			return nil, ErrWorkgroupCountBuiltin
		}
	}

	spirvBackend := naga.NewSpirvBackend(naga.SpirvOptions{
		Version:        naga.SpirvVersion14,
		DebugInfo:      true,
		Optimize:       false,
	})
	spirv, err := spirvBackend.Write(module)
	if err != nil {
		return nil, fmt.Errorf("shaderx: emit spir-v for stage %v: %w", src.Stage, err)
	}

	hlslBackend := naga.NewHLSLBackend(naga.HLSLOptions{
		ShaderModel: naga.ShaderModel5_0,
	})
	nativeText, err := hlslBackend.WriteFromSpirv(spirv)
	if err != nil {
		return nil, fmt.Errorf("shaderx: cross-compile stage %v to native text: %w", src.Stage, err)
	}

	mod, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: fmt.Sprintf("stage-%v", src.Stage),
		Code:  spirv,
	})
	if err != nil {
		return nil, fmt.Errorf("shaderx: compile native bytecode for stage %v: %w", src.Stage, err)
	}

	return &Compiled{SPIRV: spirv, NativeText: nativeText, Module: mod}, nil
}

// preprocess prepends the per-stage define, caller prefixes, and one
// _HAS_ATTRN define per declared attribute, per spec §4.7 step 1.
func preprocess(src Source) string {
	var b strings.Builder
	if d := src.Stage.define(); d != "" {
		fmt.Fprintf(&b, "#define %s\n", d)
	}
	for _, p := range src.Prefixes {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	for i := range src.Attributes {
		fmt.Fprintf(&b, "#define _HAS_ATTR%d\n", i)
	}
	b.WriteString(src.Code)
	return b.String()
}

func stageToNaga(s Stage) naga.ShaderStage {
	switch s {
	case StageVertex:
		return naga.ShaderStageVertex
	case StageFragment:
		return naga.ShaderStageFragment
	case StageGeometry:
		return naga.ShaderStageGeometry
	case StageCompute:
		return naga.ShaderStageCompute
	default:
		return naga.ShaderStageVertex
	}
}
