package gfx

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/noon-engine/noon/hal"
)

// QueueFamilyUnset marks a family that was not found.
const QueueFamilyUnset = -1

type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

func (i QueueFamilyIndices) IsComplete() bool {
	return i.Graphics != QueueFamilyUnset && i.Present != QueueFamilyUnset
}

// Shared reports whether graphics and present use the same family.
func (i QueueFamilyIndices) Shared() bool {
	return i.Graphics == i.Present
}

// Unique returns the distinct families, graphics first.
func (i QueueFamilyIndices) Unique() []int {
	if i.Shared() {
		return []int{i.Graphics}
	}
	return []int{i.Graphics, i.Present}
}

// FindQueueFamilies picks the first family with the graphics bit and,
// independently, the first family that can present.
func FindQueueFamilies(families []hal.QueueFamily, supportsPresent func(family int) (bool, error)) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{Graphics: QueueFamilyUnset, Present: QueueFamilyUnset}

	for idx, family := range families {
		if indices.Graphics == QueueFamilyUnset && family.Flags&core1_0.QueueGraphics != 0 {
			indices.Graphics = idx
		}

		if indices.Present == QueueFamilyUnset {
			supported, err := supportsPresent(idx)
			if err != nil {
				return indices, creationError(err, "queue families: query present support for family %d", idx)
			}
			if supported {
				indices.Present = idx
			}
		}

		if indices.IsComplete() {
			break
		}
	}

	if indices.Graphics == QueueFamilyUnset {
		return indices, environmentErrorf("queue families: no family supports graphics")
	}
	if indices.Present == QueueFamilyUnset {
		return indices, environmentErrorf("queue families: no family can present to the surface")
	}
	return indices, nil
}
