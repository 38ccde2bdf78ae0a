package gfx

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/noon-engine/noon/hal"
)

// Image is a device image with bound memory and a view covering it.
type Image struct {
	handle     hal.Image
	view       hal.ImageView
	allocation hal.Allocation

	format core1_0.Format
	extent core1_0.Extent2D
}

func (i *Image) Handle() hal.Image        { return i.handle }
func (i *Image) View() hal.ImageView      { return i.view }
func (i *Image) Format() core1_0.Format   { return i.format }
func (i *Image) Extent() core1_0.Extent2D { return i.extent }

// Destroy releases the view, the image and its memory, in that order.
func (i *Image) Destroy() {
	if i.view != nil {
		i.view.Destroy()
		i.view = nil
	}
	if i.handle != nil {
		i.handle.Destroy()
		i.handle = nil
	}
	if i.allocation != nil {
		i.allocation.Free()
		i.allocation = nil
	}
}
