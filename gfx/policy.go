package gfx

import (
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/noon-engine/noon/hal"
)

const (
	ValidationLayer = "VK_LAYER_KHRONOS_validation"

	MemoryBudgetExtension        = "VK_EXT_memory_budget"
	DedicatedAllocationExtension = "VK_KHR_dedicated_allocation"
)

// CapabilityPolicy decides which layers and extensions the engine asks
// for. The DeviceContext resolves its answers against what the driver
// actually offers.
type CapabilityPolicy interface {
	Layers() []Requirement
	InstanceExtensions(window hal.Window) []Requirement
	DeviceExtensions() []Requirement
}

// DefaultPolicy enables what the engine needs to present, plus the
// validation layer and debug messenger when Validation is set.
type DefaultPolicy struct {
	Validation bool
}

func (p DefaultPolicy) Layers() []Requirement {
	if !p.Validation {
		return nil
	}
	return Optional(ValidationLayer)
}

func (p DefaultPolicy) InstanceExtensions(window hal.Window) []Requirement {
	reqs := Required(window.RequiredInstanceExtensions()...)
	if p.Validation {
		reqs = append(reqs, Optional(ext_debug_utils.ExtensionName)...)
	}
	return append(reqs, Optional(khr_portability_enumeration.ExtensionName)...)
}

func (p DefaultPolicy) DeviceExtensions() []Requirement {
	reqs := Required(khr_swapchain.ExtensionName)
	return append(reqs, Optional(
		khr_portability_subset.ExtensionName,
		MemoryBudgetExtension,
		DedicatedAllocationExtension,
	)...)
}
