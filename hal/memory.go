package hal

import "unsafe"

// MemoryUsage says which side of the bus reads and writes an allocation.
type MemoryUsage int

const (
	MemoryUsageDeviceOnly MemoryUsage = iota
	MemoryUsageHostOnly
	MemoryUsageHostToDevice
	MemoryUsageDeviceToHost
)

func (u MemoryUsage) String() string {
	switch u {
	case MemoryUsageDeviceOnly:
		return "device-only"
	case MemoryUsageHostOnly:
		return "host-only"
	case MemoryUsageHostToDevice:
		return "host-to-device"
	case MemoryUsageDeviceToHost:
		return "device-to-host"
	}
	return "unknown"
}

// HostVisible reports whether allocations of this class can be mapped.
func (u MemoryUsage) HostVisible() bool {
	return u != MemoryUsageDeviceOnly
}

// Upload reports whether the host writes allocations of this class.
func (u MemoryUsage) Upload() bool {
	return u == MemoryUsageHostOnly || u == MemoryUsageHostToDevice
}

// Readback reports whether the host reads allocations of this class.
func (u MemoryUsage) Readback() bool {
	return u == MemoryUsageDeviceToHost
}

// Allocator grants device memory to buffers and images. Allocations come
// back already bound to the resource.
type Allocator interface {
	AllocateForBuffer(buffer Buffer, usage MemoryUsage) (Allocation, error)
	AllocateForImage(image Image, usage MemoryUsage) (Allocation, error)
	Destroy()
}

type Allocation interface {
	Size() int
	Map() (unsafe.Pointer, error)
	Unmap()
	Free()
}
