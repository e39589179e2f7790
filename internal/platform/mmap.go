package platform

import "unsafe"

// AddressOf returns the address of the first byte of b. b must be backed by
// a mapping obtained from MmapCodeSegment (or grown via RemapCodeSegment) so
// the address remains stable for the mapping's lifetime.
func AddressOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
