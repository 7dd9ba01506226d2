// Package hierarchy answers subclass questions over a compiled
// registry's sub_types map: whether one MediaType is (transitively) a
// more specific form of another. Grounded on r4_core/src/lib.rs's
// is_sub_type recursion over Registry.sub_types.
package hierarchy

import "github.com/tombrisland/r4/pkg/types"

// IsSubType reports whether child is a (transitive) descendant of
// parent in reg's sub-class-of tree. A type is never its own subtype,
// even when parent == child. A visited set guards against a cyclic
// sub_types map turning this into an infinite recursion; the XML
// compiler doesn't reject cycles up front, so the hierarchy walker has
// to.
func IsSubType(reg *types.Registry, parent, child types.MediaType) bool {
	return isSubType(reg, parent, child, make(map[types.MediaType]bool))
}

func isSubType(reg *types.Registry, parent, child types.MediaType, visited map[types.MediaType]bool) bool {
	if visited[parent] {
		return false
	}
	visited[parent] = true

	for _, direct := range reg.SubTypes[parent] {
		if direct == child {
			return true
		}
		if isSubType(reg, direct, child, visited) {
			return true
		}
	}
	return false
}

// MostSpecific returns whichever of a or b is a descendant of the
// other in reg's hierarchy, or ("", false) if neither is a subtype of
// the other, e.g. image/x-raw-panasonic over its parent image/tiff.
// The detection engine does not call this; it checks IsSubType directly.
func MostSpecific(reg *types.Registry, a, b types.MediaType) (types.MediaType, bool) {
	if IsSubType(reg, b, a) {
		return a, true
	}
	if IsSubType(reg, a, b) {
		return b, true
	}
	return "", false
}
