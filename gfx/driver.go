package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/engine"
	"github.com/noon-engine/noon/hal"
	"github.com/noon-engine/noon/shader"
)

type DriverConfig struct {
	AppName    string
	AppVersion common.Version

	Width, Height int
	Backbuffers   int
	Validation    bool

	// OnRender runs at the end of every rendered frame, after the globals
	// uniform buffer has been updated.
	OnRender func(d *Driver, frame engine.FrameInfo) error
	// OnTerm runs at the start of Term, once the device is idle, so that
	// resources created in OnRender can be released before the device.
	OnTerm func(d *Driver)
}

// Driver is the engine.Driver that brings up the device, the swapchain
// and the per-frame globals, and reacts to window events.
type Driver struct {
	platform hal.Platform
	cfg      DriverConfig
	logger   *slog.Logger

	ctx       *DeviceContext
	alloc     *MemoryAllocator
	swapchain *SwapchainManager
	globals   *Buffer

	rendering bool
}

var _ engine.Driver = (*Driver)(nil)

func NewDriver(platform hal.Platform, cfg DriverConfig, logger *slog.Logger) *Driver {
	return &Driver{
		platform: platform,
		cfg:      cfg,
		logger:   discardLogger(logger),
	}
}

func (d *Driver) Init() error {
	if d.ctx != nil {
		return preconditionErrorf("driver: already initialized")
	}

	var err error
	d.ctx, err = NewDeviceContext(d.platform, DeviceOptions{
		ApplicationName:    d.cfg.AppName,
		ApplicationVersion: d.cfg.AppVersion,
		Window: WindowOptions{
			Title:  d.cfg.AppName,
			Width:  d.cfg.Width,
			Height: d.cfg.Height,
		},
		Policy: DefaultPolicy{Validation: d.cfg.Validation},
		Logger: d.logger,
	})
	if err != nil {
		return err
	}

	d.alloc = NewMemoryAllocator(d.ctx, d.logger)

	width, height := d.ctx.Window().DrawableSize()
	d.swapchain, err = NewSwapchainManager(d.ctx, d.alloc, SwapchainOptions{
		Width:       width,
		Height:      height,
		Backbuffers: d.cfg.Backbuffers,
	}, d.logger)
	if err != nil {
		return err
	}

	d.globals, err = d.alloc.CreateBuffer(shader.GlobalsSize(), nil, core1_0.BufferUsageUniformBuffer, hal.MemoryUsageHostToDevice)
	if err != nil {
		return errors.Wrap(err, "driver: create globals uniform buffer")
	}

	d.rendering = true
	return nil
}

// ProcessEvents drains the window's event queue.
func (d *Driver) ProcessEvents(stop func()) error {
	if d.ctx == nil {
		return preconditionErrorf("driver: events before init")
	}

	for event := d.ctx.Window().PollEvent(); event != nil; event = d.ctx.Window().PollEvent() {
		switch e := event.(type) {
		case hal.QuitEvent:
			d.logger.Info("quit requested")
			stop()
		case hal.ResizeEvent:
			if err := d.swapchain.Reset(e.Width, e.Height); err != nil {
				return err
			}
		case hal.MinimizeEvent:
			d.rendering = false
		case hal.RestoreEvent:
			d.rendering = true
		}
	}
	return nil
}

func (d *Driver) Render(frame engine.FrameInfo) error {
	if !d.rendering {
		return nil
	}

	extent := d.swapchain.State().Extent
	globals := shader.Globals{
		Resolution: mgl32.Vec2{float32(extent.Width), float32(extent.Height)},
		FrameCount: uint32(frame.Index),
	}
	if frame.Budget > 0 {
		globals.FrameSpeedRatio = float32(frame.Delta) / float32(frame.Budget)
	}

	data, err := globals.Bytes()
	if err != nil {
		return errors.Wrap(err, "driver: encode globals")
	}
	if err := d.globals.WriteTo(0, data); err != nil {
		return err
	}

	if d.cfg.OnRender != nil {
		return d.cfg.OnRender(d, frame)
	}
	return nil
}

// Term releases everything Init built, newest first. It copes with a
// partial Init.
func (d *Driver) Term() {
	if d.ctx != nil && d.ctx.Device() != nil {
		if err := d.ctx.WaitIdle(); err != nil {
			d.logger.Warn("wait idle before teardown failed", slog.Any("error", err))
		}
	}
	if d.cfg.OnTerm != nil && d.ctx != nil {
		d.cfg.OnTerm(d)
	}

	if d.globals != nil {
		d.globals.Destroy()
		d.globals = nil
	}
	if d.swapchain != nil {
		d.swapchain.Destroy()
		d.swapchain = nil
	}
	d.alloc = nil
	if d.ctx != nil {
		d.ctx.Destroy()
		d.ctx = nil
	}
	d.rendering = false
}

func (d *Driver) Context() *DeviceContext      { return d.ctx }
func (d *Driver) Allocator() *MemoryAllocator  { return d.alloc }
func (d *Driver) Swapchain() *SwapchainManager { return d.swapchain }
func (d *Driver) Globals() *Buffer             { return d.globals }
func (d *Driver) Rendering() bool              { return d.rendering }
