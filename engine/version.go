package engine

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/vkngwrapper/core/v3/common"
)

type Version struct {
	Major, Minor, Patch int
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// ParseVersion pulls the first major.minor.patch triple out of s, so
// "v1.2.3-rc1" and "SDL 2.30.0" both parse. It returns the zero Version if
// there is none.
func ParseVersion(s string) Version {
	match := versionPattern.FindStringSubmatch(s)
	if match == nil {
		return Version{}
	}
	var parts [3]int
	for i := range parts {
		// The pattern only matches digits; only overflow can fail here.
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return Version{}
		}
		parts[i] = n
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmp(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmp(v.Minor, o.Minor)
	default:
		return cmp(v.Patch, o.Patch)
	}
}

func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Vulkan packs the version the way instance creation expects it: 10 bits
// of major, 10 of minor, 12 of patch.
func (v Version) Vulkan() common.Version {
	return common.Version(uint32(v.Major)<<22 | uint32(v.Minor)<<12 | uint32(v.Patch))
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
