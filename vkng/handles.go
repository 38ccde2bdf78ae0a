package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/noon-engine/noon/hal"
)

// destroyer wraps handles that the engine never looks inside.
type destroyer func()

func (d destroyer) Destroy() { d() }

type queue struct {
	driver core1_0.CoreDeviceDriver
	queue  core1_0.Queue
}

func (q *queue) WaitIdle() error {
	if _, err := q.driver.QueueWaitIdle(q.queue); err != nil {
		return errors.Wrap(err, "vkng: queue wait idle")
	}
	return nil
}

type commandPool struct {
	driver core1_0.CoreDeviceDriver
	pool   core1_0.CommandPool
}

func (p *commandPool) CopyBuffer(q hal.Queue, src, dst hal.Buffer, size int) error {
	target, ok := q.(*queue)
	if !ok {
		return errors.Newf("vkng: foreign queue %T", q)
	}
	from, ok := src.(*Buffer)
	if !ok {
		return errors.Newf("vkng: foreign buffer %T", src)
	}
	to, ok := dst.(*Buffer)
	if !ok {
		return errors.Newf("vkng: foreign buffer %T", dst)
	}

	buffer, err := p.beginSingleTimeCommands()
	if err != nil {
		return err
	}
	defer p.driver.FreeCommandBuffers(buffer)

	err = p.driver.CmdCopyBuffer(buffer, from.buffer, to.buffer,
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	)
	if err != nil {
		return errors.Wrap(err, "vkng: record buffer copy")
	}
	return p.endSingleTimeCommands(target, buffer)
}

func (p *commandPool) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := p.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, errors.Wrap(err, "vkng: allocate command buffer")
	}

	buffer := buffers[0]
	_, err = p.driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		p.driver.FreeCommandBuffers(buffer)
		return core1_0.CommandBuffer{}, errors.Wrap(err, "vkng: begin command buffer")
	}
	return buffer, nil
}

func (p *commandPool) endSingleTimeCommands(q *queue, buffer core1_0.CommandBuffer) error {
	if _, err := p.driver.EndCommandBuffer(buffer); err != nil {
		return errors.Wrap(err, "vkng: end command buffer")
	}

	_, err := p.driver.QueueSubmit(q.queue, nil,
		core1_0.SubmitInfo{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	)
	if err != nil {
		return errors.Wrap(err, "vkng: submit command buffer")
	}
	return q.WaitIdle()
}

func (p *commandPool) Destroy() {
	p.driver.DestroyCommandPool(p.pool, nil)
}

type Buffer struct {
	driver core1_0.CoreDeviceDriver
	buffer core1_0.Buffer
}

func (b *Buffer) Destroy() {
	b.driver.DestroyBuffer(b.buffer, nil)
}

// Image is a device image. Swapchain images are not owned and are released
// with their swapchain.
type Image struct {
	driver core1_0.CoreDeviceDriver
	image  core1_0.Image
	owned  bool
}

func (i *Image) Destroy() {
	if i.owned {
		i.driver.DestroyImage(i.image, nil)
	}
}

type imageView struct {
	driver core1_0.CoreDeviceDriver
	view   core1_0.ImageView
}

func (v *imageView) Destroy() {
	v.driver.DestroyImageView(v.view, nil)
}

type Swapchain struct {
	device    *Device
	swapchain khr_swapchain.Swapchain
}

func (s *Swapchain) Images() ([]hal.Image, error) {
	images, _, err := s.device.swapchain.GetSwapchainImages(s.swapchain)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: get swapchain images")
	}
	out := make([]hal.Image, 0, len(images))
	for _, image := range images {
		out = append(out, &Image{driver: s.device.driver, image: image})
	}
	return out, nil
}

func (s *Swapchain) Destroy() {
	s.device.swapchain.DestroySwapchain(s.swapchain, nil)
}

type renderPassHandle struct {
	driver     core1_0.CoreDeviceDriver
	renderPass core1_0.RenderPass
}

func (r *renderPassHandle) Destroy() {
	r.driver.DestroyRenderPass(r.renderPass, nil)
}

type descriptorSetLayout struct {
	driver core1_0.CoreDeviceDriver
	layout core1_0.DescriptorSetLayout
}

func (l *descriptorSetLayout) Destroy() {
	l.driver.DestroyDescriptorSetLayout(l.layout, nil)
}
