package gfx

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal"
)

// MemoryAllocator creates buffers and images backed by the device
// context's allocator. It does not own the allocator; every Buffer and
// Image it returns must be destroyed before the DeviceContext is.
type MemoryAllocator struct {
	ctx    *DeviceContext
	logger *slog.Logger
}

func NewMemoryAllocator(ctx *DeviceContext, logger *slog.Logger) *MemoryAllocator {
	return &MemoryAllocator{
		ctx:    ctx,
		logger: discardLogger(logger).With(slog.String("component", "allocator")),
	}
}

// CreateBuffer creates a buffer of size bytes. When data is given it
// becomes the initial contents: host-writable classes copy it through
// their mapping and device-only buffers are filled through a temporary
// staging buffer before CreateBuffer returns.
func (a *MemoryAllocator) CreateBuffer(size int, data []byte, usage core1_0.BufferUsageFlags, memUsage hal.MemoryUsage) (*Buffer, error) {
	if size <= 0 {
		return nil, preconditionErrorf("buffer: size must be positive, got %d", size)
	}
	if len(data) > size {
		return nil, preconditionErrorf("buffer: %d bytes of initial data do not fit in %d", len(data), size)
	}

	if memUsage == hal.MemoryUsageDeviceOnly && len(data) > 0 {
		return a.createStaged(size, data, usage)
	}

	buffer, err := a.createBuffer(size, usage, memUsage)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if memUsage.Upload() {
			copy(buffer.mapped, data)
		} else {
			a.logger.Warn("initial data ignored for a buffer the host cannot write",
				slog.String("memory_usage", memUsage.String()),
				slog.Int("size", size))
		}
	}
	return buffer, nil
}

func (a *MemoryAllocator) createStaged(size int, data []byte, usage core1_0.BufferUsageFlags) (*Buffer, error) {
	staging, err := a.createBuffer(size, core1_0.BufferUsageTransferSrc, hal.MemoryUsageHostOnly)
	if err != nil {
		return nil, creationError(err, "buffer: create staging buffer")
	}
	defer staging.Destroy()

	copy(staging.mapped, data)

	buffer, err := a.createBuffer(size, usage|core1_0.BufferUsageTransferDst, hal.MemoryUsageDeviceOnly)
	if err != nil {
		return nil, err
	}

	if err := a.ctx.CopyBuffer(staging.handle, buffer.handle, len(data)); err != nil {
		buffer.Destroy()
		return nil, creationError(err, "buffer: upload %d bytes", len(data))
	}

	a.logger.Debug("uploaded buffer through staging", slog.Int("size", size))
	return buffer, nil
}

func (a *MemoryAllocator) createBuffer(size int, usage core1_0.BufferUsageFlags, memUsage hal.MemoryUsage) (*Buffer, error) {
	handle, err := a.ctx.Device().CreateBuffer(core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, creationError(err, "buffer: create %d bytes", size)
	}

	allocation, err := a.ctx.Allocator().AllocateForBuffer(handle, memUsage)
	if err != nil {
		handle.Destroy()
		return nil, creationError(err, "buffer: allocate %s memory", memUsage)
	}

	buffer := &Buffer{
		handle:     handle,
		allocation: allocation,
		size:       size,
		usage:      usage,
		memUsage:   memUsage,
	}

	if memUsage.HostVisible() {
		ptr, err := allocation.Map()
		if err != nil {
			buffer.Destroy()
			return nil, creationError(err, "buffer: map %s memory", memUsage)
		}
		buffer.mapped = mappedBytes(ptr, size)
	}
	return buffer, nil
}

type ImageOptions struct {
	Extent core1_0.Extent2D
	Format core1_0.Format
	Usage  core1_0.ImageUsageFlags
	Aspect core1_0.ImageAspectFlags
}

// CreateImage creates a single-mip, single-layer 2D image with optimal
// tiling, binds memory to it and creates a view over it.
func (a *MemoryAllocator) CreateImage(opts ImageOptions, memUsage hal.MemoryUsage) (*Image, error) {
	if opts.Extent.Width <= 0 || opts.Extent.Height <= 0 {
		return nil, preconditionErrorf("image: extent %dx%d is empty", opts.Extent.Width, opts.Extent.Height)
	}

	handle, err := a.ctx.Device().CreateImage(core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  opts.Extent.Width,
			Height: opts.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        opts.Format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         opts.Usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, creationError(err, "image: create %dx%d", opts.Extent.Width, opts.Extent.Height)
	}

	image := &Image{
		handle: handle,
		format: opts.Format,
		extent: opts.Extent,
	}

	image.allocation, err = a.ctx.Allocator().AllocateForImage(handle, memUsage)
	if err != nil {
		image.Destroy()
		return nil, creationError(err, "image: allocate %s memory", memUsage)
	}

	image.view, err = a.ctx.Device().CreateImageView(hal.ImageViewCreateInfo{
		Image:  handle,
		Format: opts.Format,
		Aspect: opts.Aspect,
	})
	if err != nil {
		image.Destroy()
		return nil, creationError(err, "image: create view")
	}
	return image, nil
}
