package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

// ErrNilDevice is returned by NewContext when the native device is nil.
var ErrNilDevice = errors.New("driver: nil hal.Device")

// Info identifies the selected adapter, mirroring backend/wgpu's GPUInfo
// but built from the hal layer's own descriptor fields rather than a
// separate core.AdapterID lookup, since the command-list and immediate
// back-ends both sit directly on hal.
type Info struct {
	Name       string
	Vendor     string
	DeviceType types.DeviceType
	Backend    types.Backend
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Name, i.DeviceType, i.Backend)
}

// Context is the single process-wide GPU context a gfx.Init call produces:
// one native device, one queue, the limits negotiated with it, and a
// logger shared with every package built on top. Both back-ends take a
// *Context rather than touching package-level globals.
//
// Context is safe for concurrent use; the device and queue it wraps are
// themselves required to be (hal.Device's own contract).
type Context struct {
	device hal.Device
	queue  hal.Queue
	info   Info
	limits Limits
	debug  bool

	logger atomic.Pointer[slog.Logger]
}

// nopHandler discards every record; it is the zero-value logger so a
// Context built without SetLogger never pays for disabled log formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// NewContext wraps a native device and queue. limits may be nil, in which
// case DefaultLimits() is used (mirrors native.NewHALAdapter's handling of
// a nil *types.Limits).
func NewContext(device hal.Device, queue hal.Queue, info Info, limits *types.Limits, debug bool) (*Context, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	var lim Limits
	if limits != nil {
		lim = limitsFromNative(*limits)
	} else {
		lim = DefaultLimits()
	}

	c := &Context{
		device: device,
		queue:  queue,
		info:   info,
		limits: lim,
		debug:  debug,
	}
	c.logger.Store(newNopLogger())
	return c, nil
}

// Device returns the wrapped hal.Device for back-end use.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the wrapped hal.Queue for back-end use.
func (c *Context) Queue() hal.Queue { return c.queue }

// Info returns the selected adapter's identification.
func (c *Context) Info() Info { return c.info }

// Limits returns the capability limits negotiated at construction.
func (c *Context) Limits() Limits { return c.limits }

// Debug reports whether the context was created with debug validation on
// (InitFlags.Debug at the gfx layer).
func (c *Context) Debug() bool { return c.debug }

// SetLogger installs the logger used by Report and propagated down to the
// back-ends. Passing nil restores the silent default.
func (c *Context) SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	c.logger.Store(l)
}

// Logger returns the context's current logger.
func (c *Context) Logger() *slog.Logger { return c.logger.Load() }

// HalDevice returns the wrapped device as `any`, so callers that need the
// raw hal.Device for a capability this package doesn't wrap don't have to
// reach into Context's private fields.
func (c *Context) HalDevice() any { return c.device }

// HalQueue returns the wrapped queue as `any`; see HalDevice.
func (c *Context) HalQueue() any { return c.queue }

// WaitIdle blocks until all work submitted to the queue has completed.
// Use sparingly: it is a full GPU-CPU synchronization point.
func (c *Context) WaitIdle(timeout time.Duration) error {
	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("driver: create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)

	if err := c.queue.Submit(nil, fence, 1); err != nil {
		return fmt.Errorf("driver: submit idle fence: %w", err)
	}

	ok, err := c.device.Wait(fence, 1, timeout)
	if err != nil {
		return fmt.Errorf("driver: wait idle: %w", err)
	}
	if !ok {
		return fmt.Errorf("driver: wait idle: timed out after %s", timeout)
	}
	return nil
}

// Destroy releases the wrapped device. The queue has no separate lifetime
// in hal's model (it is owned by the device), matching native.HALAdapter's
// teardown order.
func (c *Context) Destroy() {
	c.device.Destroy()
}
