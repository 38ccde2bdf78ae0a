// Package hal declares the slice of the Vulkan and windowing APIs that the
// engine core drives. Object handles are interfaces so the core can run
// against the vkngwrapper backend in package vkng or against the in-memory
// doubles in package haltest. Plain create-info structs are shared with
// vkngwrapper's core1_0 and khr_surface packages wherever they carry no
// handles.
package hal

import (
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// Capability is one enumerated layer or extension.
type Capability struct {
	Name        string
	Description string
}

// Loader is the entry point into the GPU API, available once a
// surface-capable window exists.
type Loader interface {
	AvailableLayers() ([]Capability, error)
	AvailableExtensions() ([]Capability, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
}

type InstanceCreateInfo struct {
	ApplicationName    string
	ApplicationVersion common.Version
	EngineName         string
	EngineVersion      common.Version

	Layers     []string
	Extensions []string

	// EnumeratePortability sets the portability enumeration flag; only
	// meaningful when VK_KHR_portability_enumeration is in Extensions.
	EnumeratePortability bool
}

type DebugSeverity int

const (
	DebugSeverityInfo DebugSeverity = iota
	DebugSeverityWarning
	DebugSeverityError
)

type DebugMessage struct {
	Severity DebugSeverity
	Type     string
	Message  string
}

type DebugCallback func(msg DebugMessage)

type Instance interface {
	CreateDebugMessenger(callback DebugCallback) (DebugMessenger, error)
	CreateSurface(window Window) (Surface, error)
	PhysicalDevices() ([]PhysicalDevice, error)
	Destroy()
}

type DebugMessenger interface {
	Destroy()
}

type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegrated
	DeviceTypeDiscrete
	DeviceTypeVirtual
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegrated:
		return "integrated"
	case DeviceTypeDiscrete:
		return "discrete"
	case DeviceTypeVirtual:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

type DeviceProperties struct {
	Name              string
	Type              DeviceType
	VendorID          uint32
	DeviceID          uint32
	PipelineCacheUUID uuid.UUID
}

type QueueFamily struct {
	Flags core1_0.QueueFlags
	Count int
}

type PhysicalDevice interface {
	Properties() (DeviceProperties, error)
	Features() *core1_0.PhysicalDeviceFeatures
	QueueFamilies() []QueueFamily
	FormatProperties(format core1_0.Format) core1_0.FormatProperties
	Extensions() ([]Capability, error)
	CreateDevice(info DeviceCreateInfo) (Device, error)
}

type DeviceCreateInfo struct {
	// QueueFamilies lists distinct family indices; one queue is created in
	// each at priority 1.0.
	QueueFamilies []int
	Extensions    []string
	Features      *core1_0.PhysicalDeviceFeatures
}

type Surface interface {
	Capabilities(device PhysicalDevice) (*khr_surface.SurfaceCapabilities, error)
	Formats(device PhysicalDevice) ([]khr_surface.SurfaceFormat, error)
	PresentModes(device PhysicalDevice) ([]khr_surface.PresentMode, error)
	SupportsPresent(device PhysicalDevice, family int) (bool, error)
	Destroy()
}
