package gfx

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/noon-engine/noon/hal"
	"github.com/noon-engine/noon/hal/haltest"
)

func TestDeviceContextLifecycle(t *testing.T) {
	env := haltest.DefaultEnv()
	platform := haltest.NewPlatform(env)

	opts := testDeviceOptions()
	opts.ApplicationVersion = 42
	opts.Policy = DefaultPolicy{Validation: true}
	ctx, err := NewDeviceContext(platform, opts)
	require.NoError(t, err)
	require.Equal(t, DeviceAllocatorReady, ctx.State())

	require.Equal(t, []string{ValidationLayer}, ctx.EnabledLayers())
	require.Equal(t, []string{"VK_KHR_surface", "VK_KHR_xlib_surface", "VK_EXT_debug_utils"}, ctx.EnabledInstanceExtensions())
	require.Equal(t, []string{"VK_KHR_swapchain"}, ctx.EnabledDeviceExtensions())

	instance := platform.Instance.Info
	require.Equal(t, "test", instance.ApplicationName)
	require.EqualValues(t, 42, instance.ApplicationVersion)
	require.Equal(t, EngineName, instance.EngineName)
	require.False(t, instance.EnumeratePortability)

	require.Equal(t, "test", platform.Window.Info.Title)
	require.Equal(t, hal.WindowPosCentered, platform.Window.Info.X)
	require.NotZero(t, platform.Window.Info.Flags&hal.WindowVulkan)

	device := platform.Device.Info
	require.Equal(t, []int{0}, device.QueueFamilies)
	require.True(t, device.Features.GeometryShader)
	require.False(t, device.Features.SamplerAnisotropy)

	require.Equal(t, QueueFamilyIndices{Graphics: 0, Present: 0}, ctx.QueueFamilies())
	require.Equal(t, "fake discrete", ctx.PhysicalDeviceInfo().Properties.Name)
	require.NotNil(t, ctx.GraphicsQueue())
	require.NotNil(t, ctx.Allocator())

	require.NoError(t, ctx.WaitIdle())
	require.Equal(t, 1, platform.Device.WaitIdleCalls)

	ctx.Destroy()
	require.Equal(t, DeviceUninit, ctx.State())
	require.Equal(t, []string{
		haltest.KindAllocator,
		haltest.KindCommandPool,
		haltest.KindDevice,
		haltest.KindSurface,
		haltest.KindDebugMessenger,
		haltest.KindInstance,
		haltest.KindWindow,
		haltest.KindPlatform,
	}, platform.Tracker.Destroys())

	ctx.Destroy()
	requireClean(t, platform)
}

func TestDeviceContextRoutesValidationMessages(t *testing.T) {
	platform := haltest.NewPlatform(haltest.DefaultEnv())
	opts := testDeviceOptions()
	opts.Policy = DefaultPolicy{Validation: true}
	ctx, err := NewDeviceContext(platform, opts)
	require.NoError(t, err)
	defer ctx.Destroy()

	require.NotNil(t, platform.Instance.Debug)
	require.NotPanics(t, func() {
		platform.Instance.Debug(hal.DebugMessage{
			Severity: hal.DebugSeverityError,
			Type:     "validation",
			Message:  "vkCreateSwapchainKHR: bad extent",
		})
	})
}

func TestDeviceContextWithoutDebugUtils(t *testing.T) {
	env := haltest.DefaultEnv()
	env.InstanceExtensions = env.WindowExtensions
	platform := haltest.NewPlatform(env)

	opts := testDeviceOptions()
	opts.Policy = DefaultPolicy{Validation: true}
	ctx, err := NewDeviceContext(platform, opts)
	require.NoError(t, err)
	defer ctx.Destroy()

	require.Nil(t, platform.Instance.Debug)
	require.Zero(t, platform.Tracker.Created(haltest.KindDebugMessenger))
}

func TestDeviceContextPicksFirstSuitableDevice(t *testing.T) {
	env := haltest.DefaultEnv()
	integrated := haltest.DiscreteGPU("integrated")
	integrated.Type = hal.DeviceTypeIntegrated
	noGeometry := haltest.DiscreteGPU("no geometry")
	noGeometry.Features.GeometryShader = false
	env.GPUs = []haltest.GPU{integrated, noGeometry, haltest.DiscreteGPU("first"), haltest.DiscreteGPU("second")}

	platform, ctx := newTestContext(t, env)
	defer ctx.Destroy()

	require.Equal(t, "first", ctx.PhysicalDeviceInfo().Properties.Name)
	require.Same(t, &env.GPUs[2], platform.Device.Physical.GPU)
}

func TestDeviceContextCustomSuitability(t *testing.T) {
	env := haltest.DefaultEnv()
	integrated := haltest.DiscreteGPU("integrated")
	integrated.Type = hal.DeviceTypeIntegrated
	env.GPUs = []haltest.GPU{integrated}

	platform := haltest.NewPlatform(env)
	_, err := NewDeviceContext(platform, testDeviceOptions())
	require.True(t, errors.Is(err, ErrEnvironment), "%+v", err)
	requireClean(t, platform)

	opts := testDeviceOptions()
	opts.Suitable = func(info PhysicalDeviceInfo) bool { return info.Properties.Type == hal.DeviceTypeIntegrated }
	ctx, err := NewDeviceContext(haltest.NewPlatform(env), opts)
	require.NoError(t, err)
	ctx.Destroy()
}

func TestDeviceContextEnvironmentErrors(t *testing.T) {
	tests := map[string]func(env *haltest.Env){
		"broken driver": func(env *haltest.Env) {
			env.Layers = nil
			env.InstanceExtensions = nil
		},
		"missing window extension": func(env *haltest.Env) {
			env.InstanceExtensions = []string{"VK_KHR_surface"}
		},
		"no physical devices": func(env *haltest.Env) {
			env.GPUs = nil
		},
		"no present family": func(env *haltest.Env) {
			env.GPUs[0].PresentFamilies = nil
		},
		"no device extensions": func(env *haltest.Env) {
			env.GPUs[0].Extensions = nil
		},
		"no swapchain extension": func(env *haltest.Env) {
			env.GPUs[0].Extensions = []string{"VK_KHR_maintenance1"}
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			env := haltest.DefaultEnv()
			mutate(env)
			platform := haltest.NewPlatform(env)

			ctx, err := NewDeviceContext(platform, testDeviceOptions())
			require.Nil(t, ctx)
			require.True(t, errors.Is(err, ErrEnvironment), "%+v", err)
			requireClean(t, platform)
		})
	}
}

// Each failing stage must release exactly what the earlier stages built.
func TestDeviceContextUnwindsPartialInit(t *testing.T) {
	tests := []struct {
		op        string
		destroyed []string
	}{
		{"Init", nil},
		{"CreateWindow", []string{haltest.KindPlatform}},
		{"Loader", []string{haltest.KindWindow, haltest.KindPlatform}},
		{"AvailableLayers", []string{haltest.KindWindow, haltest.KindPlatform}},
		{"CreateInstance", []string{haltest.KindWindow, haltest.KindPlatform}},
		{"CreateDebugMessenger", []string{haltest.KindInstance, haltest.KindWindow, haltest.KindPlatform}},
		{"CreateSurface", []string{
			haltest.KindDebugMessenger, haltest.KindInstance, haltest.KindWindow, haltest.KindPlatform,
		}},
		{"PhysicalDevices", []string{
			haltest.KindSurface, haltest.KindDebugMessenger, haltest.KindInstance, haltest.KindWindow, haltest.KindPlatform,
		}},
		{"CreateDevice", []string{
			haltest.KindSurface, haltest.KindDebugMessenger, haltest.KindInstance, haltest.KindWindow, haltest.KindPlatform,
		}},
		{"CreateCommandPool", []string{
			haltest.KindDevice, haltest.KindSurface, haltest.KindDebugMessenger, haltest.KindInstance, haltest.KindWindow, haltest.KindPlatform,
		}},
		{"CreateAllocator", []string{
			haltest.KindCommandPool, haltest.KindDevice, haltest.KindSurface, haltest.KindDebugMessenger,
			haltest.KindInstance, haltest.KindWindow, haltest.KindPlatform,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			boom := errors.Newf("%s failed", tt.op)
			env := haltest.DefaultEnv()
			env.Fail = map[string]error{tt.op: boom}
			platform := haltest.NewPlatform(env)

			opts := testDeviceOptions()
			opts.Policy = DefaultPolicy{Validation: true}
			ctx, err := NewDeviceContext(platform, opts)
			require.Nil(t, ctx)
			require.ErrorIs(t, err, boom)
			require.True(t, errors.Is(err, ErrCreation), "%+v", err)

			require.Equal(t, tt.destroyed, platform.Tracker.Destroys())
			requireClean(t, platform)
		})
	}
}

func TestDeviceContextCopyBuffer(t *testing.T) {
	env := haltest.DefaultEnv()
	env.Fail = map[string]error{"CopyBuffer": errors.New("queue lost")}
	_, ctx := newTestContext(t, env)
	defer ctx.Destroy()

	err := ctx.CopyBuffer(nil, nil, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "copy 4 bytes")
}
