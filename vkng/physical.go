package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/noon-engine/noon/hal"
)

type PhysicalDevice struct {
	instance *Instance
	device   core1_0.PhysicalDevice
}

var _ hal.PhysicalDevice = (*PhysicalDevice)(nil)

func unwrapPhysicalDevice(device hal.PhysicalDevice) (*PhysicalDevice, error) {
	physical, ok := device.(*PhysicalDevice)
	if !ok {
		return nil, errors.Newf("vkng: foreign physical device %T", device)
	}
	return physical, nil
}

func (d *PhysicalDevice) Properties() (hal.DeviceProperties, error) {
	props, err := d.instance.driver.GetPhysicalDeviceProperties(d.device)
	if err != nil {
		return hal.DeviceProperties{}, errors.Wrap(err, "vkng: physical device properties")
	}
	return hal.DeviceProperties{
		Name:              props.DriverName,
		Type:              deviceType(props.DriverType),
		VendorID:          props.VendorID,
		DeviceID:          props.DeviceID,
		PipelineCacheUUID: props.PipelineCacheUUID,
	}, nil
}

func deviceType(t core1_0.PhysicalDeviceType) hal.DeviceType {
	switch t {
	case core1_0.PhysicalDeviceTypeIntegratedGPU:
		return hal.DeviceTypeIntegrated
	case core1_0.PhysicalDeviceTypeDiscreteGPU:
		return hal.DeviceTypeDiscrete
	case core1_0.PhysicalDeviceTypeVirtualGPU:
		return hal.DeviceTypeVirtual
	case core1_0.PhysicalDeviceTypeCPU:
		return hal.DeviceTypeCPU
	}
	return hal.DeviceTypeOther
}

func (d *PhysicalDevice) Features() *core1_0.PhysicalDeviceFeatures {
	return d.instance.driver.GetPhysicalDeviceFeatures(d.device)
}

func (d *PhysicalDevice) QueueFamilies() []hal.QueueFamily {
	families := d.instance.driver.GetPhysicalDeviceQueueFamilyProperties(d.device)
	out := make([]hal.QueueFamily, 0, len(families))
	for _, family := range families {
		out = append(out, hal.QueueFamily{Flags: family.QueueFlags, Count: family.QueueCount})
	}
	return out
}

func (d *PhysicalDevice) FormatProperties(format core1_0.Format) core1_0.FormatProperties {
	props := d.instance.driver.GetPhysicalDeviceFormatProperties(d.device, format)
	return core1_0.FormatProperties{
		LinearTilingFeatures:  props.LinearTilingFeatures,
		OptimalTilingFeatures: props.OptimalTilingFeatures,
		BufferFeatures:        props.BufferFeatures,
	}
}

func (d *PhysicalDevice) Extensions() ([]hal.Capability, error) {
	extensions, _, err := d.instance.driver.EnumerateDeviceExtensionProperties(d.device)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: enumerate device extensions")
	}
	return capabilities(extensions), nil
}

func (d *PhysicalDevice) CreateDevice(info hal.DeviceCreateInfo) (hal.Device, error) {
	queuePriority := float32(1.0)
	queues := make([]core1_0.DeviceQueueCreateInfo, 0, len(info.QueueFamilies))
	for _, family := range info.QueueFamilies {
		queues = append(queues, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	logical, _, err := d.instance.driver.CreateDevice(d.device, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queues,
		EnabledFeatures:       info.Features,
		EnabledExtensionNames: info.Extensions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create logical device")
	}
	driver, err := d.instance.driver.BuildDeviceDriver(logical)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: build device driver")
	}

	device := &Device{
		physical: d,
		driver:   driver,
		queues:   map[int]*queue{},
	}
	for _, name := range info.Extensions {
		if name == khr_swapchain.ExtensionName {
			device.swapchain = khr_swapchain.CreateExtensionDriverFromCoreDriver(driver)
		}
	}
	return device, nil
}
