package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal"
	"github.com/noon-engine/noon/shader"
)

type SwapchainOptions struct {
	// Width and Height are the requested size, used only when the surface
	// leaves the extent to the swapchain.
	Width, Height int
	// Backbuffers is the requested image count. Values below the surface
	// minimum are raised to it.
	Backbuffers int
	// DepthFormats is the depth format preference order. Defaults to
	// DefaultDepthFormats.
	DepthFormats []core1_0.Format
}

// SwapchainState is what was negotiated for the current swapchain. Every
// count in it comes from the images the driver actually returned.
type SwapchainState struct {
	Extent      core1_0.Extent2D
	Format      core1_0.Format
	ColorSpace  khr_surface.ColorSpace
	PresentMode khr_surface.PresentMode
	ImageCount  int
	Images      []hal.Image
	Views       []hal.ImageView
}

// SwapchainManager owns the swapchain and everything sized by it: image
// views, the depth image, the render pass, the descriptor layout and pool,
// the pipeline layout and one framebuffer per image.
type SwapchainManager struct {
	ctx    *DeviceContext
	alloc  *MemoryAllocator
	opts   SwapchainOptions
	logger *slog.Logger

	swapchain           hal.Swapchain
	state               SwapchainState
	depthFormat         core1_0.Format
	depth               *Image
	renderPass          hal.RenderPass
	descriptorSetLayout hal.DescriptorSetLayout
	descriptorPool      hal.DescriptorPool
	pipelineLayout      hal.PipelineLayout
	framebuffers        []hal.Framebuffer

	generation int
}

func NewSwapchainManager(ctx *DeviceContext, alloc *MemoryAllocator, opts SwapchainOptions, logger *slog.Logger) (*SwapchainManager, error) {
	if ctx == nil || ctx.Device() == nil {
		return nil, preconditionErrorf("swapchain: device context is not ready")
	}
	if len(opts.DepthFormats) == 0 {
		opts.DepthFormats = DefaultDepthFormats
	}

	m := &SwapchainManager{
		ctx:    ctx,
		alloc:  alloc,
		opts:   opts,
		logger: discardLogger(logger).With(slog.String("component", "swapchain")),
	}
	if err := m.build(opts.Width, opts.Height); err != nil {
		m.Destroy()
		return nil, err
	}
	return m, nil
}

// Reset rebuilds the swapchain and its dependents for a new window size.
// It waits for the device to go idle first. A zero width or height, as
// reported for a minimized window, leaves everything as it is.
func (m *SwapchainManager) Reset(width, height int) error {
	if width <= 0 || height <= 0 {
		m.logger.Debug("ignoring reset to empty size", slog.Int("width", width), slog.Int("height", height))
		return nil
	}

	if m.swapchain != nil {
		if err := m.ctx.WaitIdle(); err != nil {
			return errors.Wrap(err, "swapchain: reset")
		}
	}

	m.opts.Width, m.opts.Height = width, height
	return m.build(width, height)
}

func (m *SwapchainManager) build(width, height int) error {
	physical := m.ctx.PhysicalDevice()
	surface := m.ctx.Surface()
	device := m.ctx.Device()

	caps, err := surface.Capabilities(physical)
	if err != nil {
		return creationError(err, "swapchain: query surface capabilities")
	}
	formats, err := surface.Formats(physical)
	if err != nil {
		return creationError(err, "swapchain: query surface formats")
	}
	modes, err := surface.PresentModes(physical)
	if err != nil {
		return creationError(err, "swapchain: query present modes")
	}

	surfaceFormat, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return err
	}
	presentMode := ChoosePresentMode(modes)
	extent := ChooseExtent(caps, core1_0.Extent2D{Width: width, Height: height})
	minImageCount := ChooseImageCount(caps, m.opts.Backbuffers)
	sharingMode, families := ChooseSharing(m.ctx.QueueFamilies())

	swapchain, err := device.CreateSwapchain(hal.SwapchainCreateInfo{
		Surface:            surface,
		MinImageCount:      minImageCount,
		SurfaceFormat:      surfaceFormat,
		Extent:             extent,
		SharingMode:        sharingMode,
		QueueFamilyIndices: families,
		PreTransform:       caps.CurrentTransform,
		PresentMode:        presentMode,
		OldSwapchain:       m.swapchain,
	})
	if err != nil {
		return creationError(err, "swapchain: create %dx%d with %d images", extent.Width, extent.Height, minImageCount)
	}

	// The old chain is only retired once its replacement exists.
	m.releaseDependents()
	if m.swapchain != nil {
		m.swapchain.Destroy()
	}
	m.swapchain = swapchain

	images, err := swapchain.Images()
	if err != nil {
		return creationError(err, "swapchain: get images")
	}
	m.state = SwapchainState{
		Extent:      extent,
		Format:      surfaceFormat.Format,
		ColorSpace:  surfaceFormat.ColorSpace,
		PresentMode: presentMode,
		ImageCount:  len(images),
		Images:      images,
	}

	for idx, image := range images {
		view, err := device.CreateImageView(hal.ImageViewCreateInfo{
			Image:  image,
			Format: surfaceFormat.Format,
			Aspect: core1_0.ImageAspectColor,
		})
		if err != nil {
			return creationError(err, "swapchain: create view for image %d", idx)
		}
		m.state.Views = append(m.state.Views, view)
	}

	if err := m.createDepth(); err != nil {
		return err
	}

	m.renderPass, err = device.CreateRenderPass(RenderPassCreateInfo(surfaceFormat.Format, m.depthFormat))
	if err != nil {
		return creationError(err, "swapchain: create render pass")
	}

	if err := m.createDescriptors(); err != nil {
		return err
	}

	m.pipelineLayout, err = device.CreatePipelineLayout([]hal.DescriptorSetLayout{m.descriptorSetLayout})
	if err != nil {
		return creationError(err, "swapchain: create pipeline layout")
	}

	for idx, view := range m.state.Views {
		framebuffer, err := device.CreateFramebuffer(hal.FramebufferCreateInfo{
			RenderPass:  m.renderPass,
			Attachments: []hal.ImageView{view, m.depth.View()},
			Width:       extent.Width,
			Height:      extent.Height,
		})
		if err != nil {
			return creationError(err, "swapchain: create framebuffer %d", idx)
		}
		m.framebuffers = append(m.framebuffers, framebuffer)
	}

	m.generation++
	m.logger.Info("swapchain built",
		slog.Int("generation", m.generation),
		slog.Int("width", extent.Width),
		slog.Int("height", extent.Height),
		slog.Int("images", len(images)),
		slog.Int("requested_images", minImageCount),
		slog.Int("format", int(surfaceFormat.Format)),
		slog.Int("present_mode", int(presentMode)))
	return nil
}

func (m *SwapchainManager) createDepth() error {
	var err error
	m.depthFormat, err = ChooseDepthFormat(m.opts.DepthFormats, m.ctx.PhysicalDevice().FormatProperties)
	if err != nil {
		return err
	}

	aspect := core1_0.ImageAspectDepth
	if HasStencilComponent(m.depthFormat) {
		aspect |= core1_0.ImageAspectStencil
	}

	m.depth, err = m.alloc.CreateImage(ImageOptions{
		Extent: m.state.Extent,
		Format: m.depthFormat,
		Usage:  core1_0.ImageUsageDepthStencilAttachment,
		Aspect: aspect,
	}, hal.MemoryUsageDeviceOnly)
	if err != nil {
		return errors.Wrap(err, "swapchain: create depth image")
	}
	return nil
}

// createDescriptors builds the engine's set layout and a pool holding one
// set per swapchain image.
func (m *SwapchainManager) createDescriptors() error {
	device := m.ctx.Device()
	bindings := shader.LayoutBindings()

	var err error
	m.descriptorSetLayout, err = device.CreateDescriptorSetLayout(core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: bindings,
	})
	if err != nil {
		return creationError(err, "swapchain: create descriptor set layout")
	}

	count := m.state.ImageCount
	poolSizes := make([]core1_0.DescriptorPoolSize, 0, len(bindings))
	for _, binding := range bindings {
		poolSizes = append(poolSizes, core1_0.DescriptorPoolSize{
			Type:            binding.DescriptorType,
			DescriptorCount: binding.DescriptorCount * count,
		})
	}

	m.descriptorPool, err = device.CreateDescriptorPool(core1_0.DescriptorPoolCreateInfo{
		MaxSets:   count,
		PoolSizes: poolSizes,
	})
	if err != nil {
		return creationError(err, "swapchain: create descriptor pool for %d sets", count)
	}
	return nil
}

// releaseDependents destroys everything built on top of the swapchain, but
// not the swapchain itself.
func (m *SwapchainManager) releaseDependents() {
	for _, framebuffer := range m.framebuffers {
		framebuffer.Destroy()
	}
	m.framebuffers = nil

	if m.pipelineLayout != nil {
		m.pipelineLayout.Destroy()
		m.pipelineLayout = nil
	}
	if m.descriptorSetLayout != nil {
		m.descriptorSetLayout.Destroy()
		m.descriptorSetLayout = nil
	}
	if m.descriptorPool != nil {
		m.descriptorPool.Destroy()
		m.descriptorPool = nil
	}
	if m.renderPass != nil {
		m.renderPass.Destroy()
		m.renderPass = nil
	}
	if m.depth != nil {
		m.depth.Destroy()
		m.depth = nil
	}

	for _, view := range m.state.Views {
		view.Destroy()
	}
	m.state.Views = nil
	m.state.Images = nil
}

// Destroy releases the swapchain and its dependents. It is safe to call
// more than once and after a failed build.
func (m *SwapchainManager) Destroy() {
	m.releaseDependents()
	if m.swapchain != nil {
		m.swapchain.Destroy()
		m.swapchain = nil
	}
	m.state = SwapchainState{}
}

func (m *SwapchainManager) State() SwapchainState {
	return m.state
}

func (m *SwapchainManager) Swapchain() hal.Swapchain                     { return m.swapchain }
func (m *SwapchainManager) Framebuffers() []hal.Framebuffer              { return m.framebuffers }
func (m *SwapchainManager) RenderPass() hal.RenderPass                   { return m.renderPass }
func (m *SwapchainManager) DepthFormat() core1_0.Format                  { return m.depthFormat }
func (m *SwapchainManager) DepthImage() *Image                           { return m.depth }
func (m *SwapchainManager) DescriptorSetLayout() hal.DescriptorSetLayout { return m.descriptorSetLayout }
func (m *SwapchainManager) DescriptorPool() hal.DescriptorPool           { return m.descriptorPool }
func (m *SwapchainManager) PipelineLayout() hal.PipelineLayout           { return m.pipelineLayout }

// Generation counts successful builds.
func (m *SwapchainManager) Generation() int {
	return m.generation
}
