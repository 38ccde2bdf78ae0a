// Package vkng implements the hal interfaces on top of vkngwrapper and SDL2.
//
// Everything in this package must be called from the thread SDL was
// initialized on; callers lock the main goroutine to its OS thread first.
package vkng

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal"
)

type Platform struct {
	logger *slog.Logger
	ready  bool
}

var _ hal.Platform = (*Platform)(nil)

func NewPlatform(logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	return &Platform{logger: logger.With(slog.String("component", "vkng"))}
}

func (p *Platform) Init() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "vkng: init SDL video")
	}
	p.ready = true
	return nil
}

func (p *Platform) Version() string {
	var v sdl.Version
	sdl.GetVersion(&v)
	return fmt.Sprintf("SDL %d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (p *Platform) CreateWindow(info hal.WindowCreateInfo) (hal.Window, error) {
	if !p.ready {
		return nil, errors.New("vkng: CreateWindow before Init")
	}

	window, err := sdl.CreateWindow(info.Title,
		windowPos(info.X), windowPos(info.Y),
		int32(info.Width), int32(info.Height),
		windowFlags(info.Flags))
	if err != nil {
		return nil, errors.Wrapf(err, "vkng: create window %q", info.Title)
	}
	p.logger.Debug("window created", slog.String("title", info.Title),
		slog.Int("width", info.Width), slog.Int("height", info.Height))
	return &Window{window: window, logger: p.logger}, nil
}

func (p *Platform) Loader() (hal.Loader, error) {
	driver, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "vkng: load vulkan")
	}
	return &Loader{driver: driver, logger: p.logger}, nil
}

func (p *Platform) Quit() {
	if p.ready {
		sdl.Quit()
		p.ready = false
	}
}

func windowPos(pos int) int32 {
	if pos == hal.WindowPosCentered {
		return sdl.WINDOWPOS_CENTERED
	}
	return int32(pos)
}

func windowFlags(flags hal.WindowFlags) uint32 {
	var out uint32
	if flags&hal.WindowShown != 0 {
		out |= sdl.WINDOW_SHOWN
	}
	if flags&hal.WindowVulkan != 0 {
		out |= sdl.WINDOW_VULKAN
	}
	if flags&hal.WindowResizable != 0 {
		out |= sdl.WINDOW_RESIZABLE
	}
	return out
}
