package pkg

import "unsafe"

// BytesToString reinterprets the byte slice as a string without copying.
// The caller must not mutate buf afterwards.
func BytesToString(buf []byte) string {
	return unsafe.String(unsafe.SliceData(buf), len(buf))
}
