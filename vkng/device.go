package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/noon-engine/noon/hal"
)

type Device struct {
	physical  *PhysicalDevice
	driver    core1_0.CoreDeviceDriver
	swapchain khr_swapchain.ExtensionDriver
	queues    map[int]*queue
}

var _ hal.Device = (*Device)(nil)

func (d *Device) Queue(family int) hal.Queue {
	if q, ok := d.queues[family]; ok {
		return q
	}
	q := &queue{driver: d.driver, queue: d.driver.GetQueue(family, 0)}
	d.queues[family] = q
	return q
}

func (d *Device) WaitIdle() error {
	if _, err := d.driver.DeviceWaitIdle(); err != nil {
		return errors.Wrap(err, "vkng: device wait idle")
	}
	return nil
}

func (d *Device) CreateCommandPool(family int) (hal.CommandPool, error) {
	pool, _, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: family,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "vkng: create command pool for family %d", family)
	}
	return &commandPool{driver: d.driver, pool: pool}, nil
}

func (d *Device) CreateAllocator() (hal.Allocator, error) {
	props := d.physical.instance.driver.GetPhysicalDeviceMemoryProperties(d.physical.device)
	if len(props.MemoryTypes) == 0 {
		return nil, errors.New("vkng: device reports no memory types")
	}
	return &Allocator{driver: d.driver, memoryTypes: props.MemoryTypes}, nil
}

func (d *Device) CreateBuffer(info core1_0.BufferCreateInfo) (hal.Buffer, error) {
	buffer, _, err := d.driver.CreateBuffer(nil, info)
	if err != nil {
		return nil, errors.Wrapf(err, "vkng: create %d byte buffer", info.Size)
	}
	return &Buffer{driver: d.driver, buffer: buffer}, nil
}

func (d *Device) CreateImage(info core1_0.ImageCreateInfo) (hal.Image, error) {
	image, _, err := d.driver.CreateImage(nil, info)
	if err != nil {
		return nil, errors.Wrapf(err, "vkng: create %dx%d image", info.Extent.Width, info.Extent.Height)
	}
	return &Image{driver: d.driver, image: image, owned: true}, nil
}

func (d *Device) CreateImageView(info hal.ImageViewCreateInfo) (hal.ImageView, error) {
	image, ok := info.Image.(*Image)
	if !ok {
		return nil, errors.Newf("vkng: foreign image %T", info.Image)
	}
	view, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image.image,
		ViewType: core1_0.ImageViewType2D,
		Format:   info.Format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     info.Aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create image view")
	}
	return &imageView{driver: d.driver, view: view}, nil
}

func (d *Device) CreateSwapchain(info hal.SwapchainCreateInfo) (hal.Swapchain, error) {
	if d.swapchain == nil {
		return nil, errors.Newf("vkng: %s is not enabled", khr_swapchain.ExtensionName)
	}
	surface, ok := info.Surface.(*Surface)
	if !ok {
		return nil, errors.Newf("vkng: foreign surface %T", info.Surface)
	}

	var old khr_swapchain.Swapchain
	if info.OldSwapchain != nil {
		prev, ok := info.OldSwapchain.(*Swapchain)
		if !ok {
			return nil, errors.Newf("vkng: foreign swapchain %T", info.OldSwapchain)
		}
		old = prev.swapchain
	}

	swapchain, _, err := d.swapchain.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: surface.surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      info.SurfaceFormat.Format,
		ImageColorSpace:  info.SurfaceFormat.ColorSpace,
		ImageExtent:      info.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   info.SharingMode,
		QueueFamilyIndices: info.QueueFamilyIndices,

		PreTransform:   info.PreTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    info.PresentMode,
		Clipped:        true,
		OldSwapchain:   old,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create swapchain")
	}
	return &Swapchain{device: d, swapchain: swapchain}, nil
}

func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (hal.RenderPass, error) {
	renderPass, _, err := d.driver.CreateRenderPass(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create render pass")
	}
	return &renderPassHandle{driver: d.driver, renderPass: renderPass}, nil
}

func (d *Device) CreateDescriptorSetLayout(info core1_0.DescriptorSetLayoutCreateInfo) (hal.DescriptorSetLayout, error) {
	layout, _, err := d.driver.CreateDescriptorSetLayout(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create descriptor set layout")
	}
	return &descriptorSetLayout{driver: d.driver, layout: layout}, nil
}

func (d *Device) CreateDescriptorPool(info core1_0.DescriptorPoolCreateInfo) (hal.DescriptorPool, error) {
	pool, _, err := d.driver.CreateDescriptorPool(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create descriptor pool")
	}
	return destroyer(func() { d.driver.DestroyDescriptorPool(pool, nil) }), nil
}

func (d *Device) CreatePipelineLayout(setLayouts []hal.DescriptorSetLayout) (hal.PipelineLayout, error) {
	layouts := make([]core1_0.DescriptorSetLayout, 0, len(setLayouts))
	for _, layout := range setLayouts {
		l, ok := layout.(*descriptorSetLayout)
		if !ok {
			return nil, errors.Newf("vkng: foreign descriptor set layout %T", layout)
		}
		layouts = append(layouts, l.layout)
	}

	pipelineLayout, _, err := d.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: layouts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create pipeline layout")
	}
	return destroyer(func() { d.driver.DestroyPipelineLayout(pipelineLayout, nil) }), nil
}

func (d *Device) CreateFramebuffer(info hal.FramebufferCreateInfo) (hal.Framebuffer, error) {
	renderPass, ok := info.RenderPass.(*renderPassHandle)
	if !ok {
		return nil, errors.Newf("vkng: foreign render pass %T", info.RenderPass)
	}
	attachments := make([]core1_0.ImageView, 0, len(info.Attachments))
	for _, attachment := range info.Attachments {
		view, ok := attachment.(*imageView)
		if !ok {
			return nil, errors.Newf("vkng: foreign image view %T", attachment)
		}
		attachments = append(attachments, view.view)
	}

	framebuffer, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  renderPass.renderPass,
		Layers:      1,
		Attachments: attachments,
		Width:       info.Width,
		Height:      info.Height,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "vkng: create %dx%d framebuffer", info.Width, info.Height)
	}
	return destroyer(func() { d.driver.DestroyFramebuffer(framebuffer, nil) }), nil
}

func (d *Device) Destroy() {
	if d.driver != nil {
		d.driver.DestroyDevice(nil)
		d.driver = nil
	}
}
