// Package shaderx adapts the high-level per-stage shading source the gfx
// façade receives at createProgram time into shader modules, via naga:
// source text -> IR -> SPIR-V, from which the module is created (spec
// §4.7). The SPIR-V is also cross-compiled to native shading language
// text, which is kept but not compiled by the driver.
package shaderx
