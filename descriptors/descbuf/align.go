package descbuf

import "golang.org/x/exp/constraints"

// AlignUp rounds value up to the next multiple of alignment. An alignment of
// 0 or 1 means the driver imposes no constraint and value is returned as is.
func AlignUp[T constraints.Integer](value, alignment T) T {
	if alignment <= 1 {
		return value
	}

	remainder := value % alignment
	if remainder == 0 {
		return value
	}
	return value + alignment - remainder
}

// IsAligned reports whether value is a multiple of alignment, treating 0 and 1
// as "no constraint".
func IsAligned[T constraints.Integer](value, alignment T) bool {
	if alignment <= 1 {
		return true
	}
	return value%alignment == 0
}
