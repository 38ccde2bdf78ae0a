package gfx

import "github.com/vkngwrapper/core/v3/core1_0"

// DefaultDepthFormats is the depth format preference order.
var DefaultDepthFormats = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

// ChooseDepthFormat returns the first candidate the device can use as a
// depth/stencil attachment with optimal tiling.
func ChooseDepthFormat(candidates []core1_0.Format, props func(core1_0.Format) core1_0.FormatProperties) (core1_0.Format, error) {
	for _, format := range candidates {
		if props(format).OptimalTilingFeatures&core1_0.FormatFeatureDepthStencilAttachment != 0 {
			return format, nil
		}
	}
	return 0, environmentErrorf("depth: none of %d candidate formats supports depth/stencil attachments", len(candidates))
}

// HasStencilComponent reports whether a depth format also carries stencil.
func HasStencilComponent(format core1_0.Format) bool {
	return format == core1_0.FormatD32SignedFloatS8UnsignedInt || format == core1_0.FormatD24UnsignedNormalizedS8UnsignedInt
}
