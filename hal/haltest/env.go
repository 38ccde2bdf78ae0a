package haltest

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/noon-engine/noon/hal"
)

// Object kinds reported by Tracker.
const (
	KindPlatform            = "platform"
	KindWindow              = "window"
	KindInstance            = "instance"
	KindDebugMessenger      = "debug-messenger"
	KindSurface             = "surface"
	KindDevice              = "device"
	KindCommandPool         = "command-pool"
	KindAllocator           = "allocator"
	KindAllocation          = "allocation"
	KindBuffer              = "buffer"
	KindImage               = "image"
	KindImageView           = "image-view"
	KindSwapchain           = "swapchain"
	KindRenderPass          = "render-pass"
	KindDescriptorSetLayout = "descriptor-set-layout"
	KindDescriptorPool      = "descriptor-pool"
	KindPipelineLayout      = "pipeline-layout"
	KindFramebuffer         = "framebuffer"
)

// GPU describes one fake physical device.
type GPU struct {
	Name          string
	Type          hal.DeviceType
	Features      core1_0.PhysicalDeviceFeatures
	QueueFamilies []hal.QueueFamily
	// PresentFamilies lists the families that can present to any surface.
	PresentFamilies []int
	Extensions      []string
	// OptimalFeatures is the optimal-tiling feature set per format.
	OptimalFeatures map[core1_0.Format]core1_0.FormatFeatureFlags
}

// Env is the world a fake Platform exposes. Tests mutate it between calls
// to simulate driver behaviour such as a window resize.
type Env struct {
	PlatformVersion    string
	Layers             []string
	InstanceExtensions []string
	WindowExtensions   []string

	GPUs []GPU

	SurfaceCapabilities khr_surface.SurfaceCapabilities
	// TrackWindowExtent makes the surface report the window size as its
	// current extent instead of SurfaceCapabilities.CurrentExtent.
	TrackWindowExtent bool
	SurfaceFormats    []khr_surface.SurfaceFormat
	PresentModes      []khr_surface.PresentMode

	// SwapchainImages overrides how many images a swapchain hands out for
	// a requested minimum. Nil returns exactly the minimum.
	SwapchainImages func(minImageCount int) int

	// Fail makes the named operation return the error. Keys are method
	// names such as "CreateDevice" or "CreateFramebuffer".
	Fail map[string]error
	// FailAfter lets the named operation succeed that many times before
	// Fail takes effect.
	FailAfter map[string]int

	// Events is drained by Window.PollEvent.
	Events []hal.Event

	calls map[string]int
}

// DefaultEnv describes a single discrete GPU with one family that does
// graphics and present, an sRGB surface format, FIFO and mailbox, and
// surface bounds of [1,4096] with image count [2,3].
func DefaultEnv() *Env {
	return &Env{
		PlatformVersion:    "2.30.0",
		Layers:             []string{"VK_LAYER_KHRONOS_validation"},
		InstanceExtensions: []string{"VK_KHR_surface", "VK_KHR_xlib_surface", "VK_EXT_debug_utils"},
		WindowExtensions:   []string{"VK_KHR_surface", "VK_KHR_xlib_surface"},
		GPUs:               []GPU{DiscreteGPU("fake discrete")},
		SurfaceCapabilities: khr_surface.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
			MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
		},
		SurfaceFormats: []khr_surface.SurfaceFormat{
			{Format: core1_0.FormatR32G32SignedFloat, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		},
		PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox},
	}
}

// DiscreteGPU returns a suitable discrete GPU: geometry shaders, one
// graphics+present family, the swapchain extension and D32 depth.
func DiscreteGPU(name string) GPU {
	return GPU{
		Name:     name,
		Type:     hal.DeviceTypeDiscrete,
		Features: core1_0.PhysicalDeviceFeatures{GeometryShader: true, SamplerAnisotropy: true},
		QueueFamilies: []hal.QueueFamily{
			{Flags: core1_0.QueueGraphics, Count: 1},
		},
		PresentFamilies: []int{0},
		Extensions:      []string{"VK_KHR_swapchain"},
		OptimalFeatures: map[core1_0.Format]core1_0.FormatFeatureFlags{
			core1_0.FormatD32SignedFloat: core1_0.FormatFeatureDepthStencilAttachment,
		},
	}
}

func (e *Env) fail(op string) error {
	err, ok := e.Fail[op]
	if !ok {
		return nil
	}
	if e.calls == nil {
		e.calls = make(map[string]int)
	}
	e.calls[op]++
	if e.calls[op] <= e.FailAfter[op] {
		return nil
	}
	return err
}
