package driver

// Severity mirrors the D3D12 info-queue severities the original backend
// filtered on at init (SetBreakOnSeverity for CORRUPTION and ERROR, off for
// WARNING). gogpu/wgpu/hal does not expose an equivalent debug-layer hook
// anywhere in the retrieved source, so the filter below is a software gate
// the back-ends call into at validation points instead of a native
// info-queue callback.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityCorruption
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCorruption:
		return "corruption"
	default:
		return "unknown"
	}
}

// Report forwards a driver-level message to the context logger if its
// severity passes the filter installed at construction (InitFlags.Debug).
// Corruption and error always log; warnings only log when debug is on,
// matching the original's SetBreakOnSeverity(WARNING, false).
func (c *Context) Report(sev Severity, msg string, args ...any) {
	if sev == SeverityWarning && !c.debug {
		return
	}
	l := c.logger.Load()
	switch sev {
	case SeverityCorruption, SeverityError:
		l.Error(msg, append(args, "severity", sev.String())...)
	default:
		l.Warn(msg, append(args, "severity", sev.String())...)
	}
}
