package shader

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestUniformSizesMatchStd140(t *testing.T) {
	require.Equal(t, 24, GlobalsSize())
	require.Equal(t, 256, TransformSize())

	data, err := Globals{Resolution: mgl32.Vec2{1024, 768}, FrameCount: 3}.Bytes()
	require.NoError(t, err)
	require.Len(t, data, GlobalsSize())
}

func TestTransformUpdate(t *testing.T) {
	transform := NewTransform()
	transform.Model = mgl32.Translate3D(1, 2, 3)
	transform.Update()
	require.True(t, transform.MVP.ApproxEqual(transform.Model))

	transform.LookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	transform.Perspective(45, 4.0/3.0, 0.1, 100)
	transform.Update()
	require.True(t, transform.MVP.ApproxEqual(transform.Projection.Mul4(transform.View).Mul4(transform.Model)))
	// Vulkan clip flips Y.
	require.Less(t, transform.Projection.At(1, 1), float32(0))
}

func TestLayoutBindings(t *testing.T) {
	bindings := LayoutBindings()
	require.Len(t, bindings, 2)
	require.EqualValues(t, GlobalsBinding, bindings[0].Binding)
	require.EqualValues(t, TransformBinding, bindings[1].Binding)
	for _, binding := range bindings {
		require.Equal(t, core1_0.DescriptorTypeUniformBuffer, binding.DescriptorType)
	}
}
