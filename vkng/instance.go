package vkng

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal"
)

type Loader struct {
	driver core1_0.GlobalDriver
	logger *slog.Logger
}

var _ hal.Loader = (*Loader)(nil)

func (l *Loader) AvailableLayers() ([]hal.Capability, error) {
	layers, _, err := l.driver.AvailableLayers()
	if err != nil {
		return nil, errors.Wrap(err, "vkng: enumerate instance layers")
	}
	return capabilities(layers), nil
}

func (l *Loader) AvailableExtensions() ([]hal.Capability, error) {
	extensions, _, err := l.driver.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "vkng: enumerate instance extensions")
	}
	return capabilities(extensions), nil
}

// capabilities lists the names of an enumeration result in sorted order, so
// that resolution does not depend on map iteration.
func capabilities[V any](byName map[string]V) []hal.Capability {
	names := slices.Sorted(maps.Keys(byName))
	out := make([]hal.Capability, 0, len(names))
	for _, name := range names {
		out = append(out, hal.Capability{Name: name})
	}
	return out
}

func (l *Loader) CreateInstance(info hal.InstanceCreateInfo) (hal.Instance, error) {
	options := core1_0.InstanceCreateInfo{
		ApplicationName:       info.ApplicationName,
		ApplicationVersion:    info.ApplicationVersion,
		EngineName:            info.EngineName,
		EngineVersion:         info.EngineVersion,
		APIVersion:            common.Vulkan1_2,
		EnabledLayerNames:     info.Layers,
		EnabledExtensionNames: info.Extensions,
	}
	if info.EnumeratePortability {
		options.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	instance, _, err := l.driver.CreateInstance(nil, options)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create instance")
	}
	driver, err := l.driver.BuildInstanceDriver(instance)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: build instance driver")
	}
	return &Instance{
		driver:  driver,
		surface: khr_surface.CreateExtensionDriverFromCoreDriver(driver),
		logger:  l.logger,
	}, nil
}

type Instance struct {
	driver  core1_0.CoreInstanceDriver
	surface khr_surface.ExtensionDriver
	logger  *slog.Logger
}

var _ hal.Instance = (*Instance)(nil)

func (i *Instance) CreateDebugMessenger(callback hal.DebugCallback) (hal.DebugMessenger, error) {
	debug := ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.driver)
	messenger, _, err := debug.CreateDebugUtilsMessenger(nil, ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			callback(hal.DebugMessage{
				Severity: debugSeverity(severity),
				Type:     fmt.Sprint(msgType),
				Message:  data.Message,
			})
			return false
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create debug messenger")
	}
	return &debugMessenger{driver: debug, messenger: messenger}, nil
}

func debugSeverity(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) hal.DebugSeverity {
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		return hal.DebugSeverityError
	case severity&ext_debug_utils.SeverityWarning != 0:
		return hal.DebugSeverityWarning
	}
	return hal.DebugSeverityInfo
}

func (i *Instance) CreateSurface(window hal.Window) (hal.Surface, error) {
	w, ok := window.(*Window)
	if !ok || w.window == nil {
		return nil, errors.Newf("vkng: cannot create a surface for %T", window)
	}
	surface, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surface, w.window)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: create surface")
	}
	return &Surface{driver: i.surface, surface: surface}, nil
}

func (i *Instance) PhysicalDevices() ([]hal.PhysicalDevice, error) {
	devices, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "vkng: enumerate physical devices")
	}
	out := make([]hal.PhysicalDevice, 0, len(devices))
	for _, device := range devices {
		out = append(out, &PhysicalDevice{instance: i, device: device})
	}
	return out, nil
}

func (i *Instance) Destroy() {
	if i.driver != nil {
		i.driver.DestroyInstance(nil)
		i.driver = nil
	}
}

type debugMessenger struct {
	driver    ext_debug_utils.ExtensionDriver
	messenger ext_debug_utils.DebugUtilsMessenger
}

func (m *debugMessenger) Destroy() {
	m.driver.DestroyDebugUtilsMessenger(m.messenger, nil)
}

type Surface struct {
	driver  khr_surface.ExtensionDriver
	surface khr_surface.Surface
}

var _ hal.Surface = (*Surface)(nil)

func (s *Surface) Capabilities(device hal.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	physical, err := unwrapPhysicalDevice(device)
	if err != nil {
		return nil, err
	}
	caps, _, err := s.driver.GetPhysicalDeviceSurfaceCapabilities(s.surface, physical.device)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: surface capabilities")
	}
	return caps, nil
}

func (s *Surface) Formats(device hal.PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	physical, err := unwrapPhysicalDevice(device)
	if err != nil {
		return nil, err
	}
	formats, _, err := s.driver.GetPhysicalDeviceSurfaceFormats(s.surface, physical.device)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: surface formats")
	}
	return formats, nil
}

func (s *Surface) PresentModes(device hal.PhysicalDevice) ([]khr_surface.PresentMode, error) {
	physical, err := unwrapPhysicalDevice(device)
	if err != nil {
		return nil, err
	}
	modes, _, err := s.driver.GetPhysicalDeviceSurfacePresentModes(s.surface, physical.device)
	if err != nil {
		return nil, errors.Wrap(err, "vkng: surface present modes")
	}
	return modes, nil
}

func (s *Surface) SupportsPresent(device hal.PhysicalDevice, family int) (bool, error) {
	physical, err := unwrapPhysicalDevice(device)
	if err != nil {
		return false, err
	}
	supported, _, err := s.driver.GetPhysicalDeviceSurfaceSupport(s.surface, physical.device, family)
	if err != nil {
		return false, errors.Wrapf(err, "vkng: present support for queue family %d", family)
	}
	return supported, nil
}

func (s *Surface) Destroy() {
	s.driver.DestroySurface(s.surface, nil)
}
