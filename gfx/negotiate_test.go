package gfx

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func testCaps(minCount, maxCount int) *khr_surface.SurfaceCapabilities {
	return &khr_surface.SurfaceCapabilities{
		MinImageCount:  minCount,
		MaxImageCount:  maxCount,
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	linear := khr_surface.SurfaceFormat{Format: core1_0.FormatR32G32SignedFloat, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	bgra := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	rgba := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	format, err := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{linear, bgra})
	require.NoError(t, err)
	require.Equal(t, bgra, format)

	format, err = ChooseSurfaceFormat([]khr_surface.SurfaceFormat{linear, rgba, bgra})
	require.NoError(t, err)
	require.Equal(t, rgba, format)

	// Nothing sRGB: the first format is taken as is.
	format, err = ChooseSurfaceFormat([]khr_surface.SurfaceFormat{linear})
	require.NoError(t, err)
	require.Equal(t, linear, format)

	_, err = ChooseSurfaceFormat(nil)
	require.True(t, errors.Is(err, ErrEnvironment))
}

func TestChoosePresentMode(t *testing.T) {
	require.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode(nil))
	require.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeFIFO}))
	require.Equal(t, khr_surface.PresentModeMailbox, ChoosePresentMode([]khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
		khr_surface.PresentModeMailbox,
	}))
}

func TestChooseExtent(t *testing.T) {
	caps := testCaps(2, 3)
	tests := []struct {
		requested, want core1_0.Extent2D
	}{
		{core1_0.Extent2D{Width: 1024, Height: 768}, core1_0.Extent2D{Width: 1024, Height: 768}},
		{core1_0.Extent2D{Width: 0, Height: 0}, core1_0.Extent2D{Width: 1, Height: 1}},
		{core1_0.Extent2D{Width: 8000, Height: 300}, core1_0.Extent2D{Width: 4096, Height: 300}},
	}
	for _, tt := range tests {
		got := ChooseExtent(caps, tt.requested)
		require.Equal(t, tt.want, got)
		require.GreaterOrEqual(t, got.Width, caps.MinImageExtent.Width)
		require.LessOrEqual(t, got.Height, caps.MaxImageExtent.Height)
	}

	caps.CurrentExtent = core1_0.Extent2D{Width: 1920, Height: 1080}
	require.Equal(t, caps.CurrentExtent, ChooseExtent(caps, core1_0.Extent2D{Width: 1024, Height: 768}))
}

func TestChooseExtentUint32Sentinel(t *testing.T) {
	// 0xFFFFFFFF widened to int without sign extension.
	sentinel := uint32(math.MaxUint32)
	caps := testCaps(2, 3)
	caps.CurrentExtent = core1_0.Extent2D{Width: int(sentinel), Height: int(sentinel)}

	require.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, ChooseExtent(caps, core1_0.Extent2D{Width: 1024, Height: 768}))
	require.Equal(t, core1_0.Extent2D{Width: 4096, Height: 4096}, ChooseExtent(caps, core1_0.Extent2D{Width: 9000, Height: 9000}))
}

func TestChooseImageCount(t *testing.T) {
	bounded := testCaps(2, 3)
	for requested, want := range map[int]int{-1: 2, 0: 2, 1: 2, 2: 2, 3: 3, 8: 3} {
		require.Equal(t, want, ChooseImageCount(bounded, requested), "requested %d", requested)
	}

	unbounded := testCaps(1, 0)
	require.Equal(t, 8, ChooseImageCount(unbounded, 8))
	require.Equal(t, 1, ChooseImageCount(unbounded, 0))
}

func TestChooseSharingExclusive(t *testing.T) {
	mode, families := ChooseSharing(QueueFamilyIndices{Graphics: 2, Present: 2})
	require.Equal(t, core1_0.SharingModeExclusive, mode)
	require.Empty(t, families)
}

func TestChooseDepthFormat(t *testing.T) {
	supported := func(formats ...core1_0.Format) func(core1_0.Format) core1_0.FormatProperties {
		return func(format core1_0.Format) core1_0.FormatProperties {
			for _, f := range formats {
				if f == format {
					return core1_0.FormatProperties{OptimalTilingFeatures: core1_0.FormatFeatureDepthStencilAttachment}
				}
			}
			return core1_0.FormatProperties{LinearTilingFeatures: core1_0.FormatFeatureDepthStencilAttachment}
		}
	}

	format, err := ChooseDepthFormat(DefaultDepthFormats, supported(core1_0.FormatD24UnsignedNormalizedS8UnsignedInt))
	require.NoError(t, err)
	require.Equal(t, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, format)

	// The preference order decides, not the device's.
	props := supported(core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, core1_0.FormatD32SignedFloatS8UnsignedInt)
	for i := 0; i < 3; i++ {
		format, err = ChooseDepthFormat(DefaultDepthFormats, props)
		require.NoError(t, err)
		require.Equal(t, core1_0.FormatD32SignedFloatS8UnsignedInt, format)
	}
	require.True(t, HasStencilComponent(format))
	require.False(t, HasStencilComponent(core1_0.FormatD32SignedFloat))

	// Linear-only support does not count.
	_, err = ChooseDepthFormat(DefaultDepthFormats, supported())
	require.True(t, errors.Is(err, ErrEnvironment))
}

func TestRenderPassCreateInfo(t *testing.T) {
	info := RenderPassCreateInfo(core1_0.FormatB8G8R8A8SRGB, core1_0.FormatD32SignedFloat)

	require.Len(t, info.Attachments, 2)
	require.Equal(t, core1_0.FormatB8G8R8A8SRGB, info.Attachments[0].Format)
	require.Equal(t, core1_0.AttachmentStoreOpStore, info.Attachments[0].StoreOp)
	require.Equal(t, core1_0.FormatD32SignedFloat, info.Attachments[1].Format)
	require.Equal(t, core1_0.AttachmentStoreOpDontCare, info.Attachments[1].StoreOp)

	require.Len(t, info.Subpasses, 1)
	require.Len(t, info.Subpasses[0].ColorAttachments, 1)
	require.EqualValues(t, 1, info.Subpasses[0].DepthStencilAttachment.Attachment)

	require.Len(t, info.SubpassDependencies, 1)
	dependency := info.SubpassDependencies[0]
	require.EqualValues(t, core1_0.SubpassExternal, dependency.SrcSubpass)
	require.EqualValues(t, 0, dependency.DstSubpass)
	require.NotZero(t, dependency.DstAccessMask&core1_0.AccessColorAttachmentWrite)
	require.NotZero(t, dependency.DstAccessMask&core1_0.AccessDepthStencilAttachmentWrite)
}
