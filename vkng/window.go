package vkng

import (
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal"
)

type Window struct {
	window *sdl.Window
	logger *slog.Logger
}

var _ hal.Window = (*Window)(nil)

// DrawableSize is the size in pixels, which differs from the window size
// on high-DPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// PollEvent skips SDL events the engine has no use for.
func (w *Window) PollEvent() hal.Event {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if translated := translateEvent(event, w.DrawableSize); translated != nil {
			return translated
		}
	}
	return nil
}

func (w *Window) Destroy() {
	if w.window == nil {
		return
	}
	if err := w.window.Destroy(); err != nil {
		w.logger.Warn("destroy window", slog.Any("error", err))
	}
	w.window = nil
}

func translateEvent(event sdl.Event, drawableSize func() (int, int)) hal.Event {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return hal.QuitEvent{}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_MINIMIZED:
			return hal.MinimizeEvent{}
		case sdl.WINDOWEVENT_RESTORED:
			return hal.RestoreEvent{}
		case sdl.WINDOWEVENT_RESIZED:
			width, height := drawableSize()
			return hal.ResizeEvent{Width: width, Height: height}
		}
	}
	return nil
}
