package gfx

import (
	"context"
	"io"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal"
)

const EngineName = "Noon"

var EngineVersion = common.CreateVersion(0, 1, 0)

type DeviceState int

const (
	DeviceUninit DeviceState = iota
	DeviceWindowReady
	DeviceInstanceReady
	DeviceSurfaceReady
	DeviceReady
	DeviceAllocatorReady
)

func (s DeviceState) String() string {
	switch s {
	case DeviceUninit:
		return "uninit"
	case DeviceWindowReady:
		return "window-ready"
	case DeviceInstanceReady:
		return "instance-ready"
	case DeviceSurfaceReady:
		return "surface-ready"
	case DeviceReady:
		return "device-ready"
	case DeviceAllocatorReady:
		return "allocator-ready"
	}
	return "unknown"
}

type WindowOptions struct {
	Title         string
	Width, Height int
}

type DeviceOptions struct {
	ApplicationName    string
	ApplicationVersion common.Version
	Window             WindowOptions

	// Policy picks layers and extensions. Defaults to DefaultPolicy{}.
	Policy CapabilityPolicy
	// Suitable accepts or rejects a physical device. The first accepted
	// device in enumeration order is used. Defaults to DiscreteWithGeometryShader.
	Suitable func(PhysicalDeviceInfo) bool

	Logger *slog.Logger
}

// PhysicalDeviceInfo is the snapshot taken of a physical device when it is
// considered for selection.
type PhysicalDeviceInfo struct {
	Device        hal.PhysicalDevice
	Properties    hal.DeviceProperties
	Features      core1_0.PhysicalDeviceFeatures
	QueueFamilies []hal.QueueFamily
}

func DiscreteWithGeometryShader(info PhysicalDeviceInfo) bool {
	return info.Properties.Type == hal.DeviceTypeDiscrete && info.Features.GeometryShader
}

// DeviceContext owns the window, instance, surface, logical device and
// memory allocator. It is built in stages; each stage's objects are torn
// down in reverse order by Destroy, including after a failed construction.
type DeviceContext struct {
	platform hal.Platform
	opts     DeviceOptions
	policy   CapabilityPolicy
	suitable func(PhysicalDeviceInfo) bool
	logger   *slog.Logger

	state DeviceState
	terms []func()

	platformReady bool
	window        hal.Window
	loader        hal.Loader

	layers             *CapabilityRegistry
	instanceExtensions *CapabilityRegistry
	enabledLayers      []string
	enabledInstanceExt []string
	instance           hal.Instance
	debugMessenger     hal.DebugMessenger

	surface hal.Surface

	physical            PhysicalDeviceInfo
	queueFamilies       QueueFamilyIndices
	deviceExtensions    *CapabilityRegistry
	enabledDeviceExt    []string
	device              hal.Device
	graphicsQueue       hal.Queue
	presentQueue        hal.Queue
	transferCommandPool hal.CommandPool

	allocator hal.Allocator
}

func discardLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func NewDeviceContext(platform hal.Platform, opts DeviceOptions) (*DeviceContext, error) {
	c := &DeviceContext{
		platform: platform,
		opts:     opts,
		policy:   opts.Policy,
		suitable: opts.Suitable,
		logger:   discardLogger(opts.Logger).With(slog.String("component", "device")),
	}
	if c.policy == nil {
		c.policy = DefaultPolicy{}
	}
	if c.suitable == nil {
		c.suitable = DiscreteWithGeometryShader
	}

	stages := []struct {
		state DeviceState
		init  func() error
		term  func()
	}{
		{DeviceWindowReady, c.initWindow, c.termWindow},
		{DeviceInstanceReady, c.initInstance, c.termInstance},
		{DeviceSurfaceReady, c.initSurface, c.termSurface},
		{DeviceReady, c.initDevice, c.termDevice},
		{DeviceAllocatorReady, c.initAllocator, c.termAllocator},
	}

	for _, stage := range stages {
		// The term goes on the stack first so that whatever a failing
		// init managed to create is released too.
		c.terms = append(c.terms, stage.term)
		if err := stage.init(); err != nil {
			c.logger.Error("device context init failed",
				slog.String("stage", stage.state.String()),
				slog.Any("error", err))
			c.Destroy()
			return nil, err
		}
		c.state = stage.state
		c.logger.Debug("device context stage ready", slog.String("stage", stage.state.String()))
	}

	return c, nil
}

// Destroy tears down every stage in reverse order. Calling it again is a
// no-op.
func (c *DeviceContext) Destroy() {
	for i := len(c.terms) - 1; i >= 0; i-- {
		c.terms[i]()
	}
	c.terms = nil
	c.state = DeviceUninit
}

func (c *DeviceContext) State() DeviceState {
	return c.state
}

func (c *DeviceContext) initWindow() error {
	if err := c.platform.Init(); err != nil {
		return creationError(err, "window: init platform")
	}
	c.platformReady = true
	c.logger.Info("platform initialized", slog.String("version", c.platform.Version()))

	title := c.opts.Window.Title
	if title == "" {
		title = c.opts.ApplicationName
	}

	var err error
	c.window, err = c.platform.CreateWindow(hal.WindowCreateInfo{
		Title:  title,
		X:      hal.WindowPosCentered,
		Y:      hal.WindowPosCentered,
		Width:  c.opts.Window.Width,
		Height: c.opts.Window.Height,
		Flags:  hal.WindowShown | hal.WindowVulkan | hal.WindowResizable,
	})
	if err != nil {
		return creationError(err, "window: create %dx%d window", c.opts.Window.Width, c.opts.Window.Height)
	}

	c.loader, err = c.platform.Loader()
	if err != nil {
		return creationError(err, "window: load GPU API")
	}
	return nil
}

func (c *DeviceContext) termWindow() {
	c.loader = nil
	if c.window != nil {
		c.window.Destroy()
		c.window = nil
	}
	if c.platformReady {
		c.platform.Quit()
		c.platformReady = false
	}
}

func (c *DeviceContext) initInstance() error {
	layers, err := c.loader.AvailableLayers()
	if err != nil {
		return creationError(err, "instance: enumerate layers")
	}
	extensions, err := c.loader.AvailableExtensions()
	if err != nil {
		return creationError(err, "instance: enumerate extensions")
	}

	c.layers = NewCapabilityRegistry(CapabilityLayer, layers)
	c.instanceExtensions = NewCapabilityRegistry(CapabilityInstanceExtension, extensions)
	if err := RequireAny(c.layers, c.instanceExtensions); err != nil {
		return err
	}
	c.logger.Debug("available instance capabilities",
		slog.Any("layers", c.layers.Names()),
		slog.Any("extensions", c.instanceExtensions.Names()))

	c.enabledLayers, err = c.layers.Resolve(c.policy.Layers(), c.logger)
	if err != nil {
		return err
	}
	c.enabledInstanceExt, err = c.instanceExtensions.Resolve(c.policy.InstanceExtensions(c.window), c.logger)
	if err != nil {
		return err
	}

	c.instance, err = c.loader.CreateInstance(hal.InstanceCreateInfo{
		ApplicationName:      c.opts.ApplicationName,
		ApplicationVersion:   c.opts.ApplicationVersion,
		EngineName:           EngineName,
		EngineVersion:        EngineVersion,
		Layers:               c.enabledLayers,
		Extensions:           c.enabledInstanceExt,
		EnumeratePortability: slices.Contains(c.enabledInstanceExt, khr_portability_enumeration.ExtensionName),
	})
	if err != nil {
		return creationError(err, "instance: create")
	}
	c.logger.Info("instance created",
		slog.Any("layers", c.enabledLayers),
		slog.Any("extensions", c.enabledInstanceExt))

	if slices.Contains(c.enabledInstanceExt, ext_debug_utils.ExtensionName) {
		c.debugMessenger, err = c.instance.CreateDebugMessenger(c.logDebug)
		if err != nil {
			return creationError(err, "instance: create debug messenger")
		}
	}
	return nil
}

func (c *DeviceContext) termInstance() {
	if c.debugMessenger != nil {
		c.debugMessenger.Destroy()
		c.debugMessenger = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}

func (c *DeviceContext) logDebug(msg hal.DebugMessage) {
	level := slog.LevelInfo
	switch msg.Severity {
	case hal.DebugSeverityWarning:
		level = slog.LevelWarn
	case hal.DebugSeverityError:
		level = slog.LevelError
	}
	c.logger.Log(context.Background(), level, msg.Message, slog.String("type", msg.Type))
}

func (c *DeviceContext) initSurface() error {
	var err error
	c.surface, err = c.instance.CreateSurface(c.window)
	if err != nil {
		return creationError(err, "surface: create")
	}
	return nil
}

func (c *DeviceContext) termSurface() {
	if c.surface != nil {
		c.surface.Destroy()
		c.surface = nil
	}
}

func describePhysicalDevice(device hal.PhysicalDevice) (PhysicalDeviceInfo, error) {
	props, err := device.Properties()
	if err != nil {
		return PhysicalDeviceInfo{}, err
	}
	info := PhysicalDeviceInfo{
		Device:        device,
		Properties:    props,
		QueueFamilies: device.QueueFamilies(),
	}
	if features := device.Features(); features != nil {
		info.Features = *features
	}
	return info, nil
}

func (c *DeviceContext) initDevice() error {
	devices, err := c.instance.PhysicalDevices()
	if err != nil {
		return creationError(err, "device: enumerate physical devices")
	}

	for _, device := range devices {
		info, err := describePhysicalDevice(device)
		if err != nil {
			return creationError(err, "device: read physical device properties")
		}
		suitable := c.suitable(info)
		c.logger.Debug("physical device",
			slog.String("name", info.Properties.Name),
			slog.String("type", info.Properties.Type.String()),
			slog.Bool("suitable", suitable))
		if suitable {
			c.physical = info
			break
		}
	}
	if c.physical.Device == nil {
		return environmentErrorf("device: none of %d physical devices is suitable", len(devices))
	}
	c.logger.Info("physical device selected",
		slog.String("name", c.physical.Properties.Name),
		slog.String("type", c.physical.Properties.Type.String()),
		slog.String("pipeline_cache_uuid", c.physical.Properties.PipelineCacheUUID.String()))

	c.queueFamilies, err = FindQueueFamilies(c.physical.QueueFamilies, func(family int) (bool, error) {
		return c.surface.SupportsPresent(c.physical.Device, family)
	})
	if err != nil {
		return err
	}

	extensions, err := c.physical.Device.Extensions()
	if err != nil {
		return creationError(err, "device: enumerate extensions")
	}
	c.deviceExtensions = NewCapabilityRegistry(CapabilityDeviceExtension, extensions)
	if err := RequireAny(c.deviceExtensions); err != nil {
		return err
	}
	c.enabledDeviceExt, err = c.deviceExtensions.Resolve(c.policy.DeviceExtensions(), c.logger)
	if err != nil {
		return err
	}

	c.device, err = c.physical.Device.CreateDevice(hal.DeviceCreateInfo{
		QueueFamilies: c.queueFamilies.Unique(),
		Extensions:    c.enabledDeviceExt,
		Features: &core1_0.PhysicalDeviceFeatures{
			GeometryShader: c.physical.Features.GeometryShader,
		},
	})
	if err != nil {
		return creationError(err, "device: create logical device")
	}
	c.logger.Info("logical device created",
		slog.Int("graphics_family", c.queueFamilies.Graphics),
		slog.Int("present_family", c.queueFamilies.Present),
		slog.Any("extensions", c.enabledDeviceExt))

	c.graphicsQueue = c.device.Queue(c.queueFamilies.Graphics)
	c.presentQueue = c.device.Queue(c.queueFamilies.Present)

	c.transferCommandPool, err = c.device.CreateCommandPool(c.queueFamilies.Graphics)
	if err != nil {
		return creationError(err, "device: create transfer command pool")
	}
	return nil
}

func (c *DeviceContext) termDevice() {
	if c.transferCommandPool != nil {
		c.transferCommandPool.Destroy()
		c.transferCommandPool = nil
	}
	c.graphicsQueue = nil
	c.presentQueue = nil
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
}

func (c *DeviceContext) initAllocator() error {
	var err error
	c.allocator, err = c.device.CreateAllocator()
	if err != nil {
		return creationError(err, "allocator: create")
	}
	return nil
}

func (c *DeviceContext) termAllocator() {
	if c.allocator != nil {
		c.allocator.Destroy()
		c.allocator = nil
	}
}

func (c *DeviceContext) Window() hal.Window                     { return c.window }
func (c *DeviceContext) Instance() hal.Instance                 { return c.instance }
func (c *DeviceContext) Surface() hal.Surface                   { return c.surface }
func (c *DeviceContext) PhysicalDevice() hal.PhysicalDevice     { return c.physical.Device }
func (c *DeviceContext) PhysicalDeviceInfo() PhysicalDeviceInfo { return c.physical }
func (c *DeviceContext) QueueFamilies() QueueFamilyIndices      { return c.queueFamilies }
func (c *DeviceContext) Device() hal.Device                     { return c.device }
func (c *DeviceContext) GraphicsQueue() hal.Queue               { return c.graphicsQueue }
func (c *DeviceContext) PresentQueue() hal.Queue                { return c.presentQueue }
func (c *DeviceContext) Allocator() hal.Allocator               { return c.allocator }
func (c *DeviceContext) EnabledLayers() []string                { return c.enabledLayers }
func (c *DeviceContext) EnabledInstanceExtensions() []string    { return c.enabledInstanceExt }
func (c *DeviceContext) EnabledDeviceExtensions() []string      { return c.enabledDeviceExt }

// WaitIdle blocks until the device has no work in flight.
func (c *DeviceContext) WaitIdle() error {
	if c.device == nil {
		return preconditionErrorf("device: wait idle without a device")
	}
	if err := c.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "device: wait idle")
	}
	return nil
}

// CopyBuffer copies size bytes from src to dst on the graphics queue and
// waits for it to finish.
func (c *DeviceContext) CopyBuffer(src, dst hal.Buffer, size int) error {
	if c.transferCommandPool == nil {
		return preconditionErrorf("device: copy without a device")
	}
	if err := c.transferCommandPool.CopyBuffer(c.graphicsQueue, src, dst, size); err != nil {
		return errors.Wrapf(err, "device: copy %d bytes", size)
	}
	return nil
}
