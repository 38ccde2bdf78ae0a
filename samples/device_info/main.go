package main

import (
	"log"
	"os"
	"runtime"

	"github.com/vkngwrapper/core/v3/core1_0"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/engine"
	"github.com/noon-engine/noon/gfx"
	"github.com/noon-engine/noon/vkng"
)

// anyGraphicsDevice accepts the first device with a graphics queue, where
// the engine default insists on a discrete GPU.
func anyGraphicsDevice(logger *slog.Logger) func(gfx.PhysicalDeviceInfo) bool {
	return func(info gfx.PhysicalDeviceInfo) bool {
		graphics := false
		for idx, family := range info.QueueFamilies {
			logger.Info("queue family",
				slog.String("device", info.Properties.Name),
				slog.Int("index", idx),
				slog.Int("queues", family.Count),
				slog.Bool("graphics", family.Flags&core1_0.QueueGraphics != 0))
			graphics = graphics || family.Flags&core1_0.QueueGraphics != 0
		}
		return graphics
	}
}

func run() error {
	base := engine.DefaultConfig()
	base.Name = "DeviceInfo"
	base.Version = engine.Version{Major: 1}

	cfg, err := engine.ParseFlags(base, os.Args[1:])
	if err != nil {
		return err
	}
	logger := engine.NewLogger(nil, cfg.LogLevel)

	ctx, err := gfx.NewDeviceContext(vkng.NewPlatform(logger), gfx.DeviceOptions{
		ApplicationName:    cfg.Name,
		ApplicationVersion: cfg.Version.Vulkan(),
		Window: gfx.WindowOptions{
			Width:  cfg.Width,
			Height: cfg.Height,
		},
		Policy:   gfx.DefaultPolicy{Validation: cfg.Validation},
		Suitable: anyGraphicsDevice(logger),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	info := ctx.PhysicalDeviceInfo()
	families := ctx.QueueFamilies()
	logger.Info("device",
		slog.String("name", info.Properties.Name),
		slog.String("type", info.Properties.Type.String()),
		slog.Uint64("vendor_id", uint64(info.Properties.VendorID)),
		slog.Uint64("device_id", uint64(info.Properties.DeviceID)),
		slog.String("pipeline_cache_uuid", info.Properties.PipelineCacheUUID.String()),
		slog.Bool("geometry_shader", info.Features.GeometryShader),
		slog.Int("graphics_family", families.Graphics),
		slog.Int("present_family", families.Present))
	logger.Info("enabled capabilities",
		slog.Any("layers", ctx.EnabledLayers()),
		slog.Any("instance_extensions", ctx.EnabledInstanceExtensions()),
		slog.Any("device_extensions", ctx.EnabledDeviceExtensions()))

	caps, err := ctx.Surface().Capabilities(ctx.PhysicalDevice())
	if err != nil {
		return err
	}
	formats, err := ctx.Surface().Formats(ctx.PhysicalDevice())
	if err != nil {
		return err
	}
	modes, err := ctx.Surface().PresentModes(ctx.PhysicalDevice())
	if err != nil {
		return err
	}
	logger.Info("surface",
		slog.Int("min_images", caps.MinImageCount),
		slog.Int("max_images", caps.MaxImageCount),
		slog.Int("formats", len(formats)),
		slog.Int("present_modes", len(modes)))

	depth, err := gfx.ChooseDepthFormat(gfx.DefaultDepthFormats, ctx.PhysicalDevice().FormatProperties)
	if err != nil {
		return err
	}
	logger.Info("depth format", slog.Int("format", int(depth)), slog.Bool("stencil", gfx.HasStencilComponent(depth)))
	return nil
}

func main() {
	runtime.LockOSThread()

	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
