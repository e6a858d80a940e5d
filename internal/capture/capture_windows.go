//go:build windows

package capture

import "golang.org/x/sys/windows"

// Probe checks whether a known capture tool's DLL is already loaded into
// the current process (the tool injects itself before the host application
// starts, the standard RenderDoc/PIX attach model) and, if load is true,
// falls back to attempting to load renderdoc.dll from the system directory.
func Probe(load bool) Handle {
	if t, ok := findLoaded("renderdoc.dll"); ok {
		return Handle{Tool: t, Close: func() {}}
	}
	if t, ok := findLoaded("WinPixGpuCapturer.dll"); ok {
		return Handle{Tool: t, Close: func() {}}
	}

	if !load {
		return Handle{Tool: ToolNone, Close: func() {}}
	}

	dll := windows.NewLazySystemDLL("renderdoc.dll")
	if err := dll.Load(); err == nil {
		return Handle{Tool: ToolRenderDoc, Close: func() {}}
	}

	return Handle{Tool: ToolNone, Close: func() {}}
}

func findLoaded(name string) (Tool, bool) {
	h, err := windows.GetModuleHandle(name)
	if err != nil || h == 0 {
		return ToolNone, false
	}
	switch name {
	case "renderdoc.dll":
		return ToolRenderDoc, true
	case "WinPixGpuCapturer.dll":
		return ToolPIX, true
	default:
		return ToolNone, false
	}
}
