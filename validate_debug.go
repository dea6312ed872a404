//go:build debug_carve

package carve

import "encoding/binary"

const (
	// DebugMargin is the number of bytes of debug data placed after each
	// allocation in the managed buffer
	DebugMargin int = 16
	// corruptionDetectionMagicValue is a 4-byte pattern copied into the
	// debug data placed after each allocation
	corruptionDetectionMagicValue uint32 = 0x7F84E666
)

// writeMagicValue writes an easy-to-identify marker across DebugMargin bytes
// of the buffer starting at the provided offset. This function no-ops unless
// the debug_carve build tag is present.
func writeMagicValue(buf []byte, offset int) {
	for i := 0; i < DebugMargin; i += 4 {
		binary.LittleEndian.PutUint32(buf[offset+i:], corruptionDetectionMagicValue)
	}
}

// validateMagicValue verifies that the marker written by writeMagicValue is
// still present. It always returns true unless the debug_carve build tag is
// present.
func validateMagicValue(buf []byte, offset int) bool {
	for i := 0; i < DebugMargin; i += 4 {
		if binary.LittleEndian.Uint32(buf[offset+i:]) != corruptionDetectionMagicValue {
			return false
		}
	}

	return true
}

// debugValidate verifies every manager invariant and panics on a violation.
// It no-ops unless the debug_carve build tag is present.
func (m *Manager) debugValidate() {
	err := m.validateLocked()
	if err != nil {
		panic(err)
	}
}
