//go:build !debug_carve

package carve

const (
	// DebugMargin is the number of bytes of debug data placed after each
	// allocation in the managed buffer
	DebugMargin int = 0
)

// writeMagicValue writes an easy-to-identify marker across DebugMargin bytes
// of the buffer starting at the provided offset. This function no-ops unless
// the debug_carve build tag is present.
func writeMagicValue(buf []byte, offset int) {
}

// validateMagicValue verifies that the marker written by writeMagicValue is
// still present. It always returns true unless the debug_carve build tag is
// present.
func validateMagicValue(buf []byte, offset int) bool {
	return true
}

// debugValidate verifies every manager invariant and panics on a violation.
// It no-ops unless the debug_carve build tag is present.
func (m *Manager) debugValidate() {
}
