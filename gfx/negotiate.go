package gfx

import (
	"math"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// undefinedExtent reports whether width is the 0xFFFFFFFF a surface
// reports when the swapchain decides the extent. khr_surface widens it
// to int, so it arrives as 4294967295 on 64-bit and -1 on 32-bit.
func undefinedExtent(width int) bool {
	return uint32(width) == math.MaxUint32
}

// ChooseSurfaceFormat prefers 8-bit sRGB BGRA or RGBA in the non-linear
// sRGB color space. Without one it settles for the first format offered.
func ChooseSurfaceFormat(formats []khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, error) {
	if len(formats) == 0 {
		return khr_surface.SurfaceFormat{}, environmentErrorf("swapchain: surface offers no formats")
	}
	for _, format := range formats {
		if format.ColorSpace != khr_surface.ColorSpaceSRGBNonlinear {
			continue
		}
		if format.Format == core1_0.FormatB8G8R8A8SRGB || format.Format == core1_0.FormatR8G8B8A8SRGB {
			return format, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode uses mailbox when offered and FIFO, which every
// surface supports, otherwise.
func ChoosePresentMode(modes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, mode := range modes {
		if mode == khr_surface.PresentModeMailbox {
			return mode
		}
	}
	return khr_surface.PresentModeFIFO
}

// ChooseExtent returns the surface's current extent, or the requested
// size clamped into the surface bounds when the current extent is
// undefined.
func ChooseExtent(caps *khr_surface.SurfaceCapabilities, requested core1_0.Extent2D) core1_0.Extent2D {
	if !undefinedExtent(caps.CurrentExtent.Width) {
		return caps.CurrentExtent
	}
	return core1_0.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount clamps the requested backbuffer count into the surface
// bounds. A maximum of zero means there is no upper bound.
func ChooseImageCount(caps *khr_surface.SurfaceCapabilities, requested int) int {
	count := max(requested, caps.MinImageCount)
	if caps.MaxImageCount > 0 {
		count = min(count, caps.MaxImageCount)
	}
	return count
}

// ChooseSharing shares images across both families when graphics and
// present differ.
func ChooseSharing(families QueueFamilyIndices) (core1_0.SharingMode, []int) {
	if families.Shared() {
		return core1_0.SharingModeExclusive, nil
	}
	return core1_0.SharingModeConcurrent, []int{families.Graphics, families.Present}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
