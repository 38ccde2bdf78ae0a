package haltest

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/noon-engine/noon/hal"
)

type Device struct {
	object
	platform *Platform

	Physical *PhysicalDevice
	Info     hal.DeviceCreateInfo

	WaitIdleCalls int
	Copies        int

	Swapchains   []*Swapchain
	Buffers      []*Buffer
	Framebuffers []*Framebuffer
	RenderPasses []*RenderPass
}

var _ hal.Device = (*Device)(nil)

func (d *Device) Queue(family int) hal.Queue {
	return &Queue{device: d, Family: family}
}

func (d *Device) WaitIdle() error {
	if err := d.platform.Env.fail("WaitIdle"); err != nil {
		return err
	}
	d.WaitIdleCalls++
	return nil
}

func (d *Device) CreateCommandPool(family int) (hal.CommandPool, error) {
	if err := d.platform.Env.fail("CreateCommandPool"); err != nil {
		return nil, err
	}
	return &CommandPool{object: d.platform.Tracker.newObject(KindCommandPool), device: d, Family: family}, nil
}

func (d *Device) CreateAllocator() (hal.Allocator, error) {
	if err := d.platform.Env.fail("CreateAllocator"); err != nil {
		return nil, err
	}
	return &Allocator{object: d.platform.Tracker.newObject(KindAllocator), device: d}, nil
}

func (d *Device) CreateBuffer(info core1_0.BufferCreateInfo) (hal.Buffer, error) {
	if err := d.platform.Env.fail("CreateBuffer"); err != nil {
		return nil, err
	}
	if info.Size <= 0 {
		return nil, errors.Newf("haltest: buffer size %d", info.Size)
	}
	buffer := &Buffer{object: d.platform.Tracker.newObject(KindBuffer), Info: info}
	d.Buffers = append(d.Buffers, buffer)
	return buffer, nil
}

func (d *Device) CreateImage(info core1_0.ImageCreateInfo) (hal.Image, error) {
	if err := d.platform.Env.fail("CreateImage"); err != nil {
		return nil, err
	}
	obj := d.platform.Tracker.newObject(KindImage)
	return &Image{object: &obj, Info: info}, nil
}

func (d *Device) CreateImageView(info hal.ImageViewCreateInfo) (hal.ImageView, error) {
	if err := d.platform.Env.fail("CreateImageView"); err != nil {
		return nil, err
	}
	image, ok := info.Image.(*Image)
	if !ok || !image.Alive() {
		return nil, errors.New("haltest: CreateImageView needs a live image")
	}
	return &ImageView{object: d.platform.Tracker.newObject(KindImageView), Info: info}, nil
}

func (d *Device) CreateSwapchain(info hal.SwapchainCreateInfo) (hal.Swapchain, error) {
	if err := d.platform.Env.fail("CreateSwapchain"); err != nil {
		return nil, err
	}
	if surface, ok := info.Surface.(*Surface); !ok || !surface.Alive() {
		return nil, errors.New("haltest: CreateSwapchain needs a live surface")
	}
	if info.OldSwapchain != nil {
		if old, ok := info.OldSwapchain.(*Swapchain); !ok || !old.Alive() {
			return nil, errors.New("haltest: retired swapchain already destroyed")
		}
	}

	count := info.MinImageCount
	if d.platform.Env.SwapchainImages != nil {
		count = d.platform.Env.SwapchainImages(info.MinImageCount)
	}
	swapchain := &Swapchain{object: d.platform.Tracker.newObject(KindSwapchain), Info: info}
	for i := 0; i < count; i++ {
		swapchain.images = append(swapchain.images, &Image{owner: swapchain})
	}
	d.Swapchains = append(d.Swapchains, swapchain)
	return swapchain, nil
}

func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (hal.RenderPass, error) {
	if err := d.platform.Env.fail("CreateRenderPass"); err != nil {
		return nil, err
	}
	pass := &RenderPass{object: d.platform.Tracker.newObject(KindRenderPass), Info: info}
	d.RenderPasses = append(d.RenderPasses, pass)
	return pass, nil
}

func (d *Device) CreateDescriptorSetLayout(info core1_0.DescriptorSetLayoutCreateInfo) (hal.DescriptorSetLayout, error) {
	if err := d.platform.Env.fail("CreateDescriptorSetLayout"); err != nil {
		return nil, err
	}
	return &DescriptorSetLayout{object: d.platform.Tracker.newObject(KindDescriptorSetLayout), Info: info}, nil
}

func (d *Device) CreateDescriptorPool(info core1_0.DescriptorPoolCreateInfo) (hal.DescriptorPool, error) {
	if err := d.platform.Env.fail("CreateDescriptorPool"); err != nil {
		return nil, err
	}
	return &DescriptorPool{object: d.platform.Tracker.newObject(KindDescriptorPool), Info: info}, nil
}

func (d *Device) CreatePipelineLayout(setLayouts []hal.DescriptorSetLayout) (hal.PipelineLayout, error) {
	if err := d.platform.Env.fail("CreatePipelineLayout"); err != nil {
		return nil, err
	}
	for _, layout := range setLayouts {
		if l, ok := layout.(*DescriptorSetLayout); !ok || !l.Alive() {
			return nil, errors.New("haltest: CreatePipelineLayout needs live set layouts")
		}
	}
	return &handle{object: d.platform.Tracker.newObject(KindPipelineLayout)}, nil
}

func (d *Device) CreateFramebuffer(info hal.FramebufferCreateInfo) (hal.Framebuffer, error) {
	if err := d.platform.Env.fail("CreateFramebuffer"); err != nil {
		return nil, err
	}
	if pass, ok := info.RenderPass.(*RenderPass); !ok || !pass.Alive() {
		return nil, errors.New("haltest: CreateFramebuffer needs a live render pass")
	}
	for _, attachment := range info.Attachments {
		if view, ok := attachment.(*ImageView); !ok || !view.Alive() {
			return nil, errors.New("haltest: CreateFramebuffer needs live attachments")
		}
	}
	framebuffer := &Framebuffer{object: d.platform.Tracker.newObject(KindFramebuffer), Info: info}
	d.Framebuffers = append(d.Framebuffers, framebuffer)
	return framebuffer, nil
}

func (d *Device) Destroy() {
	d.destroy()
}

type Queue struct {
	device *Device
	Family int
}

func (q *Queue) WaitIdle() error {
	return q.device.platform.Env.fail("QueueWaitIdle")
}

type CommandPool struct {
	object
	device *Device
	Family int
}

func (p *CommandPool) CopyBuffer(queue hal.Queue, src, dst hal.Buffer, size int) error {
	if err := p.device.platform.Env.fail("CopyBuffer"); err != nil {
		return err
	}
	from, to := src.(*Buffer), dst.(*Buffer)
	if !from.Alive() || !to.Alive() || from.Allocation == nil || to.Allocation == nil {
		return errors.New("haltest: CopyBuffer needs live bound buffers")
	}
	if size > len(from.Allocation.Memory) || size > len(to.Allocation.Memory) {
		return errors.Newf("haltest: copy of %d bytes out of range", size)
	}
	copy(to.Allocation.Memory[:size], from.Allocation.Memory[:size])
	p.device.Copies++
	return queue.WaitIdle()
}

func (p *CommandPool) Destroy() {
	p.destroy()
}

type Allocator struct {
	object
	device *Device
}

func (a *Allocator) AllocateForBuffer(buffer hal.Buffer, usage hal.MemoryUsage) (hal.Allocation, error) {
	if err := a.device.platform.Env.fail("AllocateForBuffer"); err != nil {
		return nil, err
	}
	b := buffer.(*Buffer)
	if !b.Alive() {
		return nil, errors.New("haltest: allocation for destroyed buffer")
	}
	b.Allocation = a.allocate(b.Info.Size, usage)
	return b.Allocation, nil
}

func (a *Allocator) AllocateForImage(image hal.Image, usage hal.MemoryUsage) (hal.Allocation, error) {
	if err := a.device.platform.Env.fail("AllocateForImage"); err != nil {
		return nil, err
	}
	i := image.(*Image)
	extent := i.Info.Extent
	i.Allocation = a.allocate(extent.Width*extent.Height*4, usage)
	return i.Allocation, nil
}

func (a *Allocator) allocate(size int, usage hal.MemoryUsage) *Allocation {
	return &Allocation{
		object: a.device.platform.Tracker.newObject(KindAllocation),
		Usage:  usage,
		Memory: make([]byte, size),
	}
}

func (a *Allocator) Destroy() {
	a.destroy()
}

type Allocation struct {
	object
	Usage  hal.MemoryUsage
	Memory []byte
	Mapped bool
}

func (a *Allocation) Size() int {
	return len(a.Memory)
}

func (a *Allocation) Map() (unsafe.Pointer, error) {
	if !a.Usage.HostVisible() {
		return nil, errors.Newf("haltest: %s memory is not host visible", a.Usage)
	}
	a.Mapped = true
	return unsafe.Pointer(&a.Memory[0]), nil
}

func (a *Allocation) Unmap() {
	a.Mapped = false
}

func (a *Allocation) Free() {
	a.destroy()
}

type Buffer struct {
	object
	Info       core1_0.BufferCreateInfo
	Allocation *Allocation
}

func (b *Buffer) Destroy() {
	b.destroy()
}

// Image is either a device image or a swapchain image. Swapchain images
// are untracked and alive for as long as their swapchain.
type Image struct {
	*object
	owner *Swapchain

	Info       core1_0.ImageCreateInfo
	Allocation *Allocation
}

func (i *Image) Alive() bool {
	if i.owner != nil {
		return i.owner.Alive()
	}
	return i.object.Alive()
}

func (i *Image) Destroy() {
	if i.owner != nil {
		return
	}
	i.destroy()
}

type ImageView struct {
	object
	Info hal.ImageViewCreateInfo
}

func (v *ImageView) Destroy() {
	v.destroy()
}

type Swapchain struct {
	object
	Info   hal.SwapchainCreateInfo
	images []*Image
}

func (s *Swapchain) Images() ([]hal.Image, error) {
	images := make([]hal.Image, 0, len(s.images))
	for _, image := range s.images {
		images = append(images, image)
	}
	return images, nil
}

func (s *Swapchain) Destroy() {
	s.destroy()
}

type RenderPass struct {
	object
	Info core1_0.RenderPassCreateInfo
}

func (r *RenderPass) Destroy() {
	r.destroy()
}

type DescriptorSetLayout struct {
	object
	Info core1_0.DescriptorSetLayoutCreateInfo
}

func (l *DescriptorSetLayout) Destroy() {
	l.destroy()
}

type DescriptorPool struct {
	object
	Info core1_0.DescriptorPoolCreateInfo
}

func (p *DescriptorPool) Destroy() {
	p.destroy()
}

type Framebuffer struct {
	object
	Info hal.FramebufferCreateInfo
}

func (f *Framebuffer) Destroy() {
	f.destroy()
}
