// Package capture implements the optional capture-tool discovery hook
// (spec §6 preinit's load-capture-tool flag): on Windows it probes for a
// known capture-tool DLL already loaded into the process or loadable from
// the system directory; everywhere else it is a no-op.
package capture
