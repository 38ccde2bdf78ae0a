package gfx

import (
	"unsafe"

	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/noon-engine/noon/hal"
)

// Buffer is a device buffer with bound memory. Host-visible buffers stay
// mapped until Destroy.
type Buffer struct {
	handle     hal.Buffer
	allocation hal.Allocation
	mapped     []byte

	size      int
	usage     core1_0.BufferUsageFlags
	memUsage  hal.MemoryUsage
	destroyed bool
}

func mappedBytes(ptr unsafe.Pointer, size int) []byte {
	return unsafe.Slice((*byte)(ptr), size)
}

func (b *Buffer) Handle() hal.Buffer              { return b.handle }
func (b *Buffer) Size() int                       { return b.size }
func (b *Buffer) Usage() core1_0.BufferUsageFlags { return b.usage }
func (b *Buffer) MemoryUsage() hal.MemoryUsage    { return b.memUsage }
func (b *Buffer) Mapped() bool                    { return b.mapped != nil }

func (b *Buffer) checkRange(op string, offset, length int) error {
	if b.destroyed {
		return preconditionErrorf("buffer: %s after destroy", op)
	}
	if b.mapped == nil {
		return preconditionErrorf("buffer: %s on unmapped %s buffer", op, b.memUsage)
	}
	if offset < 0 || length < 0 || length > b.size || offset > b.size-length {
		return preconditionErrorf("buffer: %s of %d bytes at offset %d exceeds size %d", op, length, offset, b.size)
	}
	return nil
}

// WriteTo copies data into the buffer at offset. Only host-only and
// host-to-device buffers accept writes.
func (b *Buffer) WriteTo(offset int, data []byte) error {
	if !b.memUsage.Upload() {
		return preconditionErrorf("buffer: write to %s buffer", b.memUsage)
	}
	if err := b.checkRange("write", offset, len(data)); err != nil {
		return err
	}
	copy(b.mapped[offset:], data)
	return nil
}

// ReadFrom fills out from the buffer starting at offset. Only
// device-to-host buffers can be read.
func (b *Buffer) ReadFrom(offset int, out []byte) error {
	if !b.memUsage.Readback() {
		return preconditionErrorf("buffer: read from %s buffer", b.memUsage)
	}
	if err := b.checkRange("read", offset, len(out)); err != nil {
		return err
	}
	copy(out, b.mapped[offset:offset+len(out)])
	return nil
}

// Destroy unmaps, destroys the buffer and then frees its memory.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true

	if b.mapped != nil {
		b.allocation.Unmap()
		b.mapped = nil
	}
	if b.handle != nil {
		b.handle.Destroy()
	}
	if b.allocation != nil {
		b.allocation.Free()
	}
}
