package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/core1_0"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"github.com/noon-engine/noon/engine"
	"github.com/noon-engine/noon/gfx"
	"github.com/noon-engine/noon/hal"
	"github.com/noon-engine/noon/shader"
	"github.com/noon-engine/noon/vkng"
)

type HelloWorld struct {
	engine.BaseApplication
	logger *slog.Logger

	transform *gfx.Buffer
}

func (app *HelloWorld) OnStop() {
	app.logger.Info("hello world stopping")
}

// render spins a camera around the origin and uploads the matrices.
func (app *HelloWorld) render(d *gfx.Driver, frame engine.FrameInfo) error {
	if app.transform == nil {
		var err error
		app.transform, err = d.Allocator().CreateBuffer(shader.TransformSize(), nil,
			core1_0.BufferUsageUniformBuffer, hal.MemoryUsageHostToDevice)
		if err != nil {
			return err
		}
	}

	extent := d.Swapchain().State().Extent
	angle := float32(frame.Total.Seconds())

	transform := shader.NewTransform()
	transform.Model = mgl32.HomogRotate3DZ(angle)
	transform.LookAt(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	transform.Perspective(45, float32(extent.Width)/float32(extent.Height), 0.1, 10)
	transform.Update()

	data, err := transform.Bytes()
	if err != nil {
		return err
	}
	return app.transform.WriteTo(0, data)
}

func (app *HelloWorld) term(*gfx.Driver) {
	if app.transform != nil {
		app.transform.Destroy()
		app.transform = nil
	}
}

func run() error {
	base := engine.DefaultConfig()
	base.Name = "HelloWorld"
	base.Version = engine.Version{Major: 1}

	cfg, err := engine.ParseFlags(base, os.Args[1:])
	if err != nil {
		return err
	}
	logger := engine.NewLogger(nil, cfg.LogLevel)

	app := &HelloWorld{BaseApplication: cfg.Application(), logger: logger}
	driver := gfx.NewDriver(vkng.NewPlatform(logger), gfx.DriverConfig{
		AppName:     cfg.Name,
		AppVersion:  cfg.Version.Vulkan(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Backbuffers: cfg.Backbuffers,
		Validation:  cfg.Validation,
		OnRender:    app.render,
		OnTerm:      app.term,
	}, logger)
	loop := engine.NewFrameLoop(app, driver, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			logger.Info("signal received")
			loop.Stop()
		case <-done:
		}
		return nil
	})

	// SDL and the loop stay on the main thread.
	err = loop.Run()
	close(done)
	if waitErr := g.Wait(); err == nil {
		err = waitErr
	}
	return err
}

func main() {
	runtime.LockOSThread()

	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
