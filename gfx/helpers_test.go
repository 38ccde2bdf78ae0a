package gfx

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/noon-engine/noon/hal/haltest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testDeviceOptions() DeviceOptions {
	return DeviceOptions{
		ApplicationName: "test",
		Window:          WindowOptions{Width: 1024, Height: 768},
		Logger:          testLogger(),
	}
}

func newTestContext(t *testing.T, env *haltest.Env) (*haltest.Platform, *DeviceContext) {
	t.Helper()
	platform := haltest.NewPlatform(env)
	ctx, err := NewDeviceContext(platform, testDeviceOptions())
	require.NoError(t, err)
	return platform, ctx
}

// requireClean fails unless every tracked object was destroyed exactly once.
func requireClean(t *testing.T, platform *haltest.Platform) {
	t.Helper()
	require.Zero(t, platform.Tracker.LiveTotal(), "leaked objects: %v", platform.Tracker.Events())
	require.Empty(t, platform.Tracker.DoubleDestroys())
}
