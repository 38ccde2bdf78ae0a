package hal

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

type Device interface {
	Queue(family int) Queue
	WaitIdle() error

	CreateCommandPool(family int) (CommandPool, error)
	CreateAllocator() (Allocator, error)

	CreateBuffer(info core1_0.BufferCreateInfo) (Buffer, error)
	CreateImage(info core1_0.ImageCreateInfo) (Image, error)
	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	CreateRenderPass(info core1_0.RenderPassCreateInfo) (RenderPass, error)
	CreateDescriptorSetLayout(info core1_0.DescriptorSetLayoutCreateInfo) (DescriptorSetLayout, error)
	CreateDescriptorPool(info core1_0.DescriptorPoolCreateInfo) (DescriptorPool, error)
	CreatePipelineLayout(setLayouts []DescriptorSetLayout) (PipelineLayout, error)
	CreateFramebuffer(info FramebufferCreateInfo) (Framebuffer, error)

	Destroy()
}

type Queue interface {
	WaitIdle() error
}

type CommandPool interface {
	// CopyBuffer records a single copy of size bytes from src to dst,
	// submits it to queue and blocks until the queue is idle.
	CopyBuffer(queue Queue, src, dst Buffer, size int) error
	Destroy()
}

type Buffer interface {
	Destroy()
}

// Image is a device image. Destroy is a no-op for images owned by a
// swapchain.
type Image interface {
	Destroy()
}

type ImageView interface {
	Destroy()
}

type ImageViewCreateInfo struct {
	Image  Image
	Format core1_0.Format
	Aspect core1_0.ImageAspectFlags
}

type Swapchain interface {
	Images() ([]Image, error)
	Destroy()
}

type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount int
	SurfaceFormat khr_surface.SurfaceFormat
	Extent        core1_0.Extent2D

	SharingMode        core1_0.SharingMode
	QueueFamilyIndices []int

	PreTransform khr_surface.SurfaceTransformFlags
	PresentMode  khr_surface.PresentMode

	// OldSwapchain is the swapchain being retired, or nil.
	OldSwapchain Swapchain
}

type RenderPass interface {
	Destroy()
}

type DescriptorSetLayout interface {
	Destroy()
}

type DescriptorPool interface {
	Destroy()
}

type PipelineLayout interface {
	Destroy()
}

type Framebuffer interface {
	Destroy()
}

type FramebufferCreateInfo struct {
	RenderPass    RenderPass
	Attachments   []ImageView
	Width, Height int
}
