package gfx

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/noon-engine/noon/hal/haltest"
)

func newTestSwapchain(t *testing.T, env *haltest.Env, opts SwapchainOptions) (*haltest.Platform, *DeviceContext, *SwapchainManager) {
	t.Helper()
	platform, ctx := newTestContext(t, env)
	swapchain, err := NewSwapchainManager(ctx, NewMemoryAllocator(ctx, testLogger()), opts, testLogger())
	require.NoError(t, err)
	return platform, ctx, swapchain
}

func requireConsistent(t *testing.T, m *SwapchainManager) {
	t.Helper()
	state := m.State()
	require.Len(t, state.Images, state.ImageCount)
	require.Len(t, state.Views, state.ImageCount)
	require.Len(t, m.Framebuffers(), state.ImageCount)
}

func TestSwapchainBuild(t *testing.T) {
	platform, ctx, swapchain := newTestSwapchain(t, haltest.DefaultEnv(), SwapchainOptions{
		Width: 1024, Height: 768, Backbuffers: 2,
	})

	state := swapchain.State()
	require.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, state.Extent)
	require.Equal(t, 2, state.ImageCount)
	require.Equal(t, core1_0.FormatB8G8R8A8SRGB, state.Format)
	require.Equal(t, khr_surface.ColorSpaceSRGBNonlinear, state.ColorSpace)
	require.Equal(t, khr_surface.PresentModeMailbox, state.PresentMode)
	require.Equal(t, core1_0.FormatD32SignedFloat, swapchain.DepthFormat())
	require.Equal(t, 1, swapchain.Generation())
	requireConsistent(t, swapchain)

	info := platform.Device.Swapchains[0].Info
	require.Equal(t, 2, info.MinImageCount)
	require.Equal(t, core1_0.SharingModeExclusive, info.SharingMode)
	require.Empty(t, info.QueueFamilyIndices)
	require.Nil(t, info.OldSwapchain)

	pass := platform.Device.RenderPasses[0].Info
	require.Equal(t, core1_0.FormatB8G8R8A8SRGB, pass.Attachments[0].Format)
	require.Equal(t, core1_0.FormatD32SignedFloat, pass.Attachments[1].Format)

	for idx, fb := range platform.Device.Framebuffers {
		require.Equal(t, 1024, fb.Info.Width)
		require.Equal(t, 768, fb.Info.Height)
		require.Equal(t, state.Views[idx], fb.Info.Attachments[0])
		require.Equal(t, swapchain.DepthImage().View(), fb.Info.Attachments[1])
	}

	layout := swapchain.DescriptorSetLayout().(*haltest.DescriptorSetLayout)
	require.Len(t, layout.Info.Bindings, 2)
	pool := swapchain.DescriptorPool().(*haltest.DescriptorPool)
	require.Equal(t, 2, pool.Info.MaxSets)
	for _, size := range pool.Info.PoolSizes {
		require.Equal(t, core1_0.DescriptorTypeUniformBuffer, size.Type)
		require.Equal(t, 2, size.DescriptorCount)
	}
	require.NotNil(t, swapchain.PipelineLayout())
	require.NotNil(t, swapchain.RenderPass())

	swapchain.Destroy()
	swapchain.Destroy()
	ctx.Destroy()
	requireClean(t, platform)
}

func TestSwapchainUsesReturnedImageCount(t *testing.T) {
	env := haltest.DefaultEnv()
	env.SwapchainImages = func(minImageCount int) int { return minImageCount + 1 }

	_, ctx, swapchain := newTestSwapchain(t, env, SwapchainOptions{Width: 640, Height: 480, Backbuffers: 2})
	defer ctx.Destroy()
	defer swapchain.Destroy()

	require.Equal(t, 3, swapchain.State().ImageCount)
	requireConsistent(t, swapchain)
	require.Equal(t, 3, swapchain.DescriptorPool().(*haltest.DescriptorPool).Info.MaxSets)
}

func TestSwapchainUsesSurfaceExtent(t *testing.T) {
	env := haltest.DefaultEnv()
	env.TrackWindowExtent = true

	_, ctx, swapchain := newTestSwapchain(t, env, SwapchainOptions{Width: 10, Height: 10})
	defer ctx.Destroy()
	defer swapchain.Destroy()

	// The surface follows the 1024x768 window, whatever was requested.
	require.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, swapchain.State().Extent)
	require.Equal(t, 2, swapchain.State().ImageCount)
}

func TestSwapchainStencilDepth(t *testing.T) {
	env := haltest.DefaultEnv()
	env.GPUs[0].OptimalFeatures = map[core1_0.Format]core1_0.FormatFeatureFlags{
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt: core1_0.FormatFeatureDepthStencilAttachment,
	}

	_, ctx, swapchain := newTestSwapchain(t, env, SwapchainOptions{Width: 64, Height: 64})
	defer ctx.Destroy()
	defer swapchain.Destroy()

	require.Equal(t, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, swapchain.DepthFormat())
	view := swapchain.DepthImage().View().(*haltest.ImageView)
	require.Equal(t, core1_0.ImageAspectDepth|core1_0.ImageAspectStencil, view.Info.Aspect)
}

func TestSwapchainResetAfterResize(t *testing.T) {
	platform, ctx, swapchain := newTestSwapchain(t, haltest.DefaultEnv(), SwapchainOptions{
		Width: 1024, Height: 768, Backbuffers: 2,
	})

	oldSwapchain := swapchain.Swapchain()
	oldViews := swapchain.State().Views
	oldFramebuffers := swapchain.Framebuffers()
	mark := len(platform.Tracker.Events())

	require.NoError(t, swapchain.Reset(800, 600))
	require.Equal(t, 1, platform.Device.WaitIdleCalls)

	state := swapchain.State()
	require.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, state.Extent)
	require.Equal(t, 2, swapchain.Generation())
	requireConsistent(t, swapchain)

	require.Same(t, oldSwapchain, platform.Device.Swapchains[1].Info.OldSwapchain)
	require.False(t, oldSwapchain.(*haltest.Swapchain).Alive())
	for _, view := range oldViews {
		require.False(t, view.(*haltest.ImageView).Alive())
	}
	for _, fb := range oldFramebuffers {
		require.False(t, fb.(*haltest.Framebuffer).Alive())
	}

	// The replacement swapchain exists before the old one goes, and every
	// old dependent is gone before its replacement is made.
	require.Equal(t, []string{
		"create swapchain",
		"destroy framebuffer",
		"destroy framebuffer",
		"destroy pipeline-layout",
		"destroy descriptor-set-layout",
		"destroy descriptor-pool",
		"destroy render-pass",
		"destroy image-view",
		"destroy image",
		"destroy allocation",
		"destroy image-view",
		"destroy image-view",
		"destroy swapchain",
		"create image-view",
		"create image-view",
		"create image",
		"create allocation",
		"create image-view",
		"create render-pass",
		"create descriptor-set-layout",
		"create descriptor-pool",
		"create pipeline-layout",
		"create framebuffer",
		"create framebuffer",
	}, platform.Tracker.Events()[mark:])

	swapchain.Destroy()
	ctx.Destroy()
	requireClean(t, platform)
}

func TestSwapchainResetToEmptySizeIsIgnored(t *testing.T) {
	platform, ctx, swapchain := newTestSwapchain(t, haltest.DefaultEnv(), SwapchainOptions{Width: 1024, Height: 768})
	defer ctx.Destroy()
	defer swapchain.Destroy()

	mark := len(platform.Tracker.Events())
	require.NoError(t, swapchain.Reset(0, 600))
	require.NoError(t, swapchain.Reset(800, 0))

	require.Equal(t, 1, swapchain.Generation())
	require.Zero(t, platform.Device.WaitIdleCalls)
	require.Len(t, platform.Tracker.Events(), mark)
}

func TestSwapchainResetKeepsOldChainWhenCreateFails(t *testing.T) {
	env := haltest.DefaultEnv()
	platform, ctx, swapchain := newTestSwapchain(t, env, SwapchainOptions{Width: 1024, Height: 768})

	env.Fail = map[string]error{"CreateSwapchain": errors.New("surface lost")}
	err := swapchain.Reset(800, 600)
	require.True(t, errors.Is(err, ErrCreation), "%+v", err)

	require.Equal(t, 1, swapchain.Generation())
	require.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, swapchain.State().Extent)
	requireConsistent(t, swapchain)
	for _, fb := range swapchain.Framebuffers() {
		require.True(t, fb.(*haltest.Framebuffer).Alive())
	}

	swapchain.Destroy()
	ctx.Destroy()
	requireClean(t, platform)
}

func TestSwapchainBuildFailureCleansUp(t *testing.T) {
	for _, op := range []string{
		"Capabilities",
		"CreateSwapchain",
		"CreateImageView",
		"CreateImage",
		"AllocateForImage",
		"CreateRenderPass",
		"CreateDescriptorSetLayout",
		"CreateDescriptorPool",
		"CreatePipelineLayout",
		"CreateFramebuffer",
	} {
		t.Run(op, func(t *testing.T) {
			env := haltest.DefaultEnv()
			platform, ctx := newTestContext(t, env)

			boom := errors.Newf("%s failed", op)
			env.Fail = map[string]error{op: boom}
			// Let the first of a repeated call through so failures land
			// midway through a loop.
			env.FailAfter = map[string]int{"CreateImageView": 1, "CreateFramebuffer": 1}

			swapchain, err := NewSwapchainManager(ctx, NewMemoryAllocator(ctx, testLogger()), SwapchainOptions{
				Width: 1024, Height: 768,
			}, testLogger())
			require.Nil(t, swapchain)
			require.ErrorIs(t, err, boom)
			require.True(t, errors.Is(err, ErrCreation), "%+v", err)

			for _, kind := range []string{
				haltest.KindSwapchain, haltest.KindImageView, haltest.KindImage, haltest.KindAllocation,
				haltest.KindRenderPass, haltest.KindDescriptorSetLayout, haltest.KindDescriptorPool,
				haltest.KindPipelineLayout, haltest.KindFramebuffer,
			} {
				require.Zero(t, platform.Tracker.Live(kind), kind)
			}

			ctx.Destroy()
			requireClean(t, platform)
		})
	}
}

func TestSwapchainResetFailureCanBeDestroyed(t *testing.T) {
	env := haltest.DefaultEnv()
	platform, ctx, swapchain := newTestSwapchain(t, env, SwapchainOptions{Width: 1024, Height: 768})

	env.Fail = map[string]error{"CreateRenderPass": errors.New("out of host memory")}
	require.Error(t, swapchain.Reset(800, 600))

	swapchain.Destroy()
	ctx.Destroy()
	requireClean(t, platform)
}

func TestSwapchainNoDepthFormat(t *testing.T) {
	env := haltest.DefaultEnv()
	env.GPUs[0].OptimalFeatures = nil
	platform, ctx := newTestContext(t, env)

	_, err := NewSwapchainManager(ctx, NewMemoryAllocator(ctx, testLogger()), SwapchainOptions{Width: 8, Height: 8}, testLogger())
	require.True(t, errors.Is(err, ErrEnvironment), "%+v", err)

	ctx.Destroy()
	requireClean(t, platform)
}
