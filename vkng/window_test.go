package vkng

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"

	"github.com/noon-engine/noon/hal"
)

func TestTranslateEvent(t *testing.T) {
	drawable := func() (int, int) { return 1600, 1200 }

	tests := []struct {
		name  string
		event sdl.Event
		want  hal.Event
	}{
		{"quit", &sdl.QuitEvent{}, hal.QuitEvent{}},
		{"minimized", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED}, hal.MinimizeEvent{}},
		{"restored", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESTORED}, hal.RestoreEvent{}},
		{"resized reports drawable size", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600}, hal.ResizeEvent{Width: 1600, Height: 1200}},
		{"focus ignored", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_FOCUS_GAINED}, nil},
		{"keyboard ignored", &sdl.KeyboardEvent{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, translateEvent(tt.event, drawable))
		})
	}
}

func TestWindowFlags(t *testing.T) {
	require.Equal(t, uint32(sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE),
		windowFlags(hal.WindowShown|hal.WindowVulkan|hal.WindowResizable))
	require.Equal(t, uint32(sdl.WINDOW_VULKAN), windowFlags(hal.WindowVulkan))
	require.Zero(t, windowFlags(0))

	require.Equal(t, int32(sdl.WINDOWPOS_CENTERED), windowPos(hal.WindowPosCentered))
	require.Equal(t, int32(40), windowPos(40))
}

func TestCapabilitiesSorted(t *testing.T) {
	got := capabilities(map[string]*core1_0.ExtensionProperties{
		"VK_KHR_surface":      nil,
		"VK_EXT_debug_utils":  nil,
		"VK_KHR_xlib_surface": nil,
	})
	require.Equal(t, []hal.Capability{
		{Name: "VK_EXT_debug_utils"},
		{Name: "VK_KHR_surface"},
		{Name: "VK_KHR_xlib_surface"},
	}, got)
	require.Empty(t, capabilities(map[string]*core1_0.LayerProperties{}))
}

func TestDebugSeverity(t *testing.T) {
	require.Equal(t, hal.DebugSeverityError, debugSeverity(ext_debug_utils.SeverityError))
	require.Equal(t, hal.DebugSeverityError, debugSeverity(ext_debug_utils.SeverityError|ext_debug_utils.SeverityWarning))
	require.Equal(t, hal.DebugSeverityWarning, debugSeverity(ext_debug_utils.SeverityWarning))
	require.Equal(t, hal.DebugSeverityInfo, debugSeverity(0))
}

func TestDeviceType(t *testing.T) {
	require.Equal(t, hal.DeviceTypeDiscrete, deviceType(core1_0.PhysicalDeviceTypeDiscreteGPU))
	require.Equal(t, hal.DeviceTypeIntegrated, deviceType(core1_0.PhysicalDeviceTypeIntegratedGPU))
	require.Equal(t, hal.DeviceTypeCPU, deviceType(core1_0.PhysicalDeviceTypeCPU))
	require.Equal(t, hal.DeviceTypeOther, deviceType(core1_0.PhysicalDeviceTypeOther))
}
