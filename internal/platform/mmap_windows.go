//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MmapCodeSegment allocates a fresh RW region via VirtualAlloc. See the unix
// implementation's doc comment for the RW/RX lifecycle contract.
func MmapCodeSegment(size int) ([]byte, error) {
	if size <= 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("VirtualAlloc: %w", err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// MunmapCodeSegment releases a mapping returned by MmapCodeSegment.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return windows.VirtualFree(uintptr(unsafe.Pointer(&code[0])), 0, windows.MEM_RELEASE)
}

// RemapCodeSegment grows an RW mapping to newSize, preserving its contents.
func RemapCodeSegment(old []byte, newSize int) ([]byte, error) {
	b, err := MmapCodeSegment(newSize)
	if err != nil {
		return nil, err
	}
	copy(b, old)
	if len(old) > 0 {
		if err := MunmapCodeSegment(old[:cap(old)]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// MprotectRX seals an RW code mapping to read-execute.
func MprotectRX(code []byte) error {
	if len(code) == 0 {
		return nil
	}
	var old uint32
	if err := windows.VirtualProtect(uintptr(unsafe.Pointer(&code[0])), uintptr(len(code)), windows.PAGE_EXECUTE_READ, &old); err != nil {
		return fmt.Errorf("VirtualProtect rx: %w", err)
	}
	return nil
}
