package haltest

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/noon-engine/noon/hal"
)

// Platform is an in-memory hal.Platform.
type Platform struct {
	Env     *Env
	Tracker *Tracker

	Window   *Window
	Instance *Instance
	Device   *Device

	self *object
}

var _ hal.Platform = (*Platform)(nil)

func NewPlatform(env *Env) *Platform {
	return &Platform{Env: env, Tracker: NewTracker()}
}

func (p *Platform) Init() error {
	if err := p.Env.fail("Init"); err != nil {
		return err
	}
	obj := p.Tracker.newObject(KindPlatform)
	p.self = &obj
	return nil
}

func (p *Platform) Version() string {
	return p.Env.PlatformVersion
}

func (p *Platform) CreateWindow(info hal.WindowCreateInfo) (hal.Window, error) {
	if p.self == nil || !p.self.Alive() {
		return nil, errors.New("haltest: CreateWindow before Init")
	}
	if err := p.Env.fail("CreateWindow"); err != nil {
		return nil, err
	}
	p.Window = &Window{
		object: p.Tracker.newObject(KindWindow),
		env:    p.Env,
		Info:   info,
		Width:  info.Width,
		Height: info.Height,
	}
	return p.Window, nil
}

func (p *Platform) Loader() (hal.Loader, error) {
	if p.Window == nil {
		return nil, errors.New("haltest: Loader before CreateWindow")
	}
	if err := p.Env.fail("Loader"); err != nil {
		return nil, err
	}
	return &Loader{platform: p}, nil
}

func (p *Platform) Quit() {
	if p.self != nil {
		p.self.destroy()
	}
}

type Window struct {
	object
	env *Env

	Info          hal.WindowCreateInfo
	Width, Height int
}

func (w *Window) DrawableSize() (int, int) {
	return w.Width, w.Height
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.env.WindowExtensions
}

func (w *Window) PollEvent() hal.Event {
	if len(w.env.Events) == 0 {
		return nil
	}
	event := w.env.Events[0]
	w.env.Events = w.env.Events[1:]
	if resize, ok := event.(hal.ResizeEvent); ok {
		w.Width, w.Height = resize.Width, resize.Height
	}
	return event
}

func (w *Window) Destroy() {
	w.destroy()
}

type Loader struct {
	platform *Platform
}

func capabilities(names []string) []hal.Capability {
	records := make([]hal.Capability, 0, len(names))
	for _, name := range names {
		records = append(records, hal.Capability{Name: name})
	}
	return records
}

func (l *Loader) AvailableLayers() ([]hal.Capability, error) {
	if err := l.platform.Env.fail("AvailableLayers"); err != nil {
		return nil, err
	}
	return capabilities(l.platform.Env.Layers), nil
}

func (l *Loader) AvailableExtensions() ([]hal.Capability, error) {
	if err := l.platform.Env.fail("AvailableExtensions"); err != nil {
		return nil, err
	}
	return capabilities(l.platform.Env.InstanceExtensions), nil
}

func (l *Loader) CreateInstance(info hal.InstanceCreateInfo) (hal.Instance, error) {
	if err := l.platform.Env.fail("CreateInstance"); err != nil {
		return nil, err
	}
	l.platform.Instance = &Instance{
		object:   l.platform.Tracker.newObject(KindInstance),
		platform: l.platform,
		Info:     info,
	}
	return l.platform.Instance, nil
}

type Instance struct {
	object
	platform *Platform

	Info     hal.InstanceCreateInfo
	Debug    hal.DebugCallback
	Surfaces []*Surface
}

func (i *Instance) CreateDebugMessenger(callback hal.DebugCallback) (hal.DebugMessenger, error) {
	if err := i.platform.Env.fail("CreateDebugMessenger"); err != nil {
		return nil, err
	}
	i.Debug = callback
	return &handle{object: i.platform.Tracker.newObject(KindDebugMessenger)}, nil
}

func (i *Instance) CreateSurface(window hal.Window) (hal.Surface, error) {
	if err := i.platform.Env.fail("CreateSurface"); err != nil {
		return nil, err
	}
	w, ok := window.(*Window)
	if !ok || !w.Alive() {
		return nil, errors.New("haltest: CreateSurface needs a live window")
	}
	surface := &Surface{
		object:   i.platform.Tracker.newObject(KindSurface),
		platform: i.platform,
		window:   w,
	}
	i.Surfaces = append(i.Surfaces, surface)
	return surface, nil
}

func (i *Instance) PhysicalDevices() ([]hal.PhysicalDevice, error) {
	if err := i.platform.Env.fail("PhysicalDevices"); err != nil {
		return nil, err
	}
	devices := make([]hal.PhysicalDevice, 0, len(i.platform.Env.GPUs))
	for idx := range i.platform.Env.GPUs {
		devices = append(devices, &PhysicalDevice{platform: i.platform, GPU: &i.platform.Env.GPUs[idx]})
	}
	return devices, nil
}

func (i *Instance) Destroy() {
	i.destroy()
}

// handle is a tracked object with nothing else to it.
type handle struct {
	object
}

func (h *handle) Destroy() {
	h.destroy()
}

type PhysicalDevice struct {
	platform *Platform
	GPU      *GPU
}

func (d *PhysicalDevice) Properties() (hal.DeviceProperties, error) {
	if err := d.platform.Env.fail("Properties"); err != nil {
		return hal.DeviceProperties{}, err
	}
	return hal.DeviceProperties{
		Name:              d.GPU.Name,
		Type:              d.GPU.Type,
		PipelineCacheUUID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(d.GPU.Name)),
	}, nil
}

func (d *PhysicalDevice) Features() *core1_0.PhysicalDeviceFeatures {
	features := d.GPU.Features
	return &features
}

func (d *PhysicalDevice) QueueFamilies() []hal.QueueFamily {
	return d.GPU.QueueFamilies
}

func (d *PhysicalDevice) FormatProperties(format core1_0.Format) core1_0.FormatProperties {
	return core1_0.FormatProperties{OptimalTilingFeatures: d.GPU.OptimalFeatures[format]}
}

func (d *PhysicalDevice) Extensions() ([]hal.Capability, error) {
	if err := d.platform.Env.fail("Extensions"); err != nil {
		return nil, err
	}
	return capabilities(d.GPU.Extensions), nil
}

func (d *PhysicalDevice) CreateDevice(info hal.DeviceCreateInfo) (hal.Device, error) {
	if err := d.platform.Env.fail("CreateDevice"); err != nil {
		return nil, err
	}
	for _, family := range info.QueueFamilies {
		if family < 0 || family >= len(d.GPU.QueueFamilies) {
			return nil, errors.Newf("haltest: no queue family %d", family)
		}
	}
	d.platform.Device = &Device{
		object:   d.platform.Tracker.newObject(KindDevice),
		platform: d.platform,
		Physical: d,
		Info:     info,
	}
	return d.platform.Device, nil
}

type Surface struct {
	object
	platform *Platform
	window   *Window
}

func (s *Surface) Capabilities(device hal.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	if err := s.platform.Env.fail("Capabilities"); err != nil {
		return nil, err
	}
	caps := s.platform.Env.SurfaceCapabilities
	if s.platform.Env.TrackWindowExtent {
		caps.CurrentExtent = core1_0.Extent2D{Width: s.window.Width, Height: s.window.Height}
	}
	return &caps, nil
}

func (s *Surface) Formats(device hal.PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	if err := s.platform.Env.fail("Formats"); err != nil {
		return nil, err
	}
	return s.platform.Env.SurfaceFormats, nil
}

func (s *Surface) PresentModes(device hal.PhysicalDevice) ([]khr_surface.PresentMode, error) {
	if err := s.platform.Env.fail("PresentModes"); err != nil {
		return nil, err
	}
	return s.platform.Env.PresentModes, nil
}

func (s *Surface) SupportsPresent(device hal.PhysicalDevice, family int) (bool, error) {
	if err := s.platform.Env.fail("SupportsPresent"); err != nil {
		return false, err
	}
	gpu := device.(*PhysicalDevice).GPU
	for _, present := range gpu.PresentFamilies {
		if present == family {
			return true, nil
		}
	}
	return false, nil
}

func (s *Surface) Destroy() {
	s.destroy()
}
