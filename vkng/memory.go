package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/noon-engine/noon/hal"
)

// Allocator gives every resource its own device memory allocation.
type Allocator struct {
	driver      core1_0.CoreDeviceDriver
	memoryTypes []core1_0.MemoryType
}

var _ hal.Allocator = (*Allocator)(nil)

type memoryProperties struct {
	required  core1_0.MemoryPropertyFlags
	preferred core1_0.MemoryPropertyFlags
}

func propertiesFor(usage hal.MemoryUsage) memoryProperties {
	switch usage {
	case hal.MemoryUsageHostOnly:
		return memoryProperties{
			required: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
		}
	case hal.MemoryUsageHostToDevice:
		return memoryProperties{
			required:  core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
			preferred: core1_0.MemoryPropertyDeviceLocal,
		}
	case hal.MemoryUsageDeviceToHost:
		return memoryProperties{
			required:  core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
			preferred: core1_0.MemoryPropertyHostCached,
		}
	}
	return memoryProperties{required: core1_0.MemoryPropertyDeviceLocal}
}

// findMemoryType returns the first type allowed by typeBits with all the
// required and preferred properties, falling back to the first with only
// the required ones.
func findMemoryType(types []core1_0.MemoryType, typeBits uint32, props memoryProperties) (int, error) {
	for _, want := range []core1_0.MemoryPropertyFlags{props.required | props.preferred, props.required} {
		for i, memoryType := range types {
			typeBit := uint32(1 << i)
			if (typeBits&typeBit) != 0 && (memoryType.PropertyFlags&want) == want {
				return i, nil
			}
		}
	}
	return 0, errors.Newf("vkng: no memory type in %#x has properties %v", typeBits, props.required)
}

func (a *Allocator) AllocateForBuffer(buffer hal.Buffer, usage hal.MemoryUsage) (hal.Allocation, error) {
	b, ok := buffer.(*Buffer)
	if !ok {
		return nil, errors.Newf("vkng: foreign buffer %T", buffer)
	}

	reqs := a.driver.GetBufferMemoryRequirements(b.buffer)
	allocation, err := a.allocate(reqs.Size, reqs.MemoryTypeBits, usage)
	if err != nil {
		return nil, err
	}
	if _, err := a.driver.BindBufferMemory(b.buffer, allocation.memory, 0); err != nil {
		allocation.Free()
		return nil, errors.Wrap(err, "vkng: bind buffer memory")
	}
	return allocation, nil
}

func (a *Allocator) AllocateForImage(image hal.Image, usage hal.MemoryUsage) (hal.Allocation, error) {
	i, ok := image.(*Image)
	if !ok || !i.owned {
		return nil, errors.Newf("vkng: cannot bind memory to %T", image)
	}

	reqs := a.driver.GetImageMemoryRequirements(i.image)
	allocation, err := a.allocate(reqs.Size, reqs.MemoryTypeBits, usage)
	if err != nil {
		return nil, err
	}
	if _, err := a.driver.BindImageMemory(i.image, allocation.memory, 0); err != nil {
		allocation.Free()
		return nil, errors.Wrap(err, "vkng: bind image memory")
	}
	return allocation, nil
}

func (a *Allocator) allocate(size int, typeBits uint32, usage hal.MemoryUsage) (*Allocation, error) {
	memoryTypeIndex, err := findMemoryType(a.memoryTypes, typeBits, propertiesFor(usage))
	if err != nil {
		return nil, errors.Wrapf(err, "vkng: %s allocation", usage)
	}

	memory, _, err := a.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "vkng: allocate %d bytes of %s memory", size, usage)
	}
	return &Allocation{driver: a.driver, memory: memory, size: size}, nil
}

// Destroy is a no-op; allocations are freed one by one.
func (a *Allocator) Destroy() {}

type Allocation struct {
	driver core1_0.CoreDeviceDriver
	memory core1_0.DeviceMemory
	size   int
	mapped unsafe.Pointer
}

func (a *Allocation) Size() int {
	return a.size
}

// Map maps the whole allocation. The mapping persists until Unmap, and
// mapping again returns the same pointer.
func (a *Allocation) Map() (unsafe.Pointer, error) {
	if a.mapped != nil {
		return a.mapped, nil
	}
	ptr, _, err := a.driver.MapMemory(a.memory, 0, a.size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: map memory")
	}
	a.mapped = ptr
	return ptr, nil
}

func (a *Allocation) Unmap() {
	if a.mapped == nil {
		return
	}
	a.driver.UnmapMemory(a.memory)
	a.mapped = nil
}

func (a *Allocation) Free() {
	a.Unmap()
	a.driver.FreeMemory(a.memory, nil)
}
