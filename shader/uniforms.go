// Package shader holds the uniform blocks every engine pipeline binds and
// the descriptor set layout that describes them.
package shader

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const (
	GlobalsBinding   = 0
	TransformBinding = 1
)

// Globals is refreshed once per frame.
type Globals struct {
	Resolution      mgl32.Vec2
	Mouse           mgl32.Vec2
	FrameCount      uint32
	FrameSpeedRatio float32
}

// Transform carries the matrices of one drawable.
type Transform struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	MVP        mgl32.Mat4
}

// vulkanClip maps GL clip space onto Vulkan's: Y flipped, Z in [0,1].
var vulkanClip = mgl32.Mat4{
	1.0, 0.0, 0.0, 0.0,
	0.0, -1.0, 0.0, 0.0,
	0.0, 0.0, 0.5, 0.0,
	0.0, 0.0, 0.5, 1.0,
}

func NewTransform() Transform {
	return Transform{
		Model:      mgl32.Ident4(),
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		MVP:        mgl32.Ident4(),
	}
}

func (t *Transform) LookAt(eye, center, up mgl32.Vec3) {
	t.View = mgl32.LookAtV(eye, center, up)
}

// Perspective sets a Vulkan-ready perspective projection. fovy is in
// degrees.
func (t *Transform) Perspective(fovy, aspect, near, far float32) {
	t.Projection = vulkanClip.Mul4(mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far))
}

// Update recomputes MVP from the other three matrices.
func (t *Transform) Update() {
	t.MVP = t.Projection.Mul4(t.View).Mul4(t.Model)
}

func (g Globals) Bytes() ([]byte, error) {
	return encode(g)
}

func (t Transform) Bytes() ([]byte, error) {
	return encode(t)
}

func GlobalsSize() int {
	return binary.Size(Globals{})
}

func TransformSize() int {
	return binary.Size(Transform{})
}

func encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, common.ByteOrder, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LayoutBindings describes the engine's descriptor set: Globals at binding
// 0 and Transform at binding 1, both uniform buffers.
func LayoutBindings() []core1_0.DescriptorSetLayoutBinding {
	return []core1_0.DescriptorSetLayoutBinding{
		{
			Binding:         GlobalsBinding,
			DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      core1_0.StageVertex | core1_0.StageFragment,
		},
		{
			Binding:         TransformBinding,
			DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      core1_0.StageVertex,
		},
	}
}
