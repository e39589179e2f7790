//go:build unix

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapCodeSegment allocates a fresh anonymous RW mapping of size bytes. The
// mapping is RW, not RWX: callers must call MprotectRX before executing it,
// matching the two-phase lifecycle spec §5 requires (write-once, then
// read-execute for the life of the owning Loader).
func MmapCodeSegment(size int) ([]byte, error) {
	if size <= 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return b, nil
}

// MunmapCodeSegment releases a mapping returned by MmapCodeSegment (or the
// slice most recently returned by RemapCodeSegment for it).
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return unix.Munmap(code)
}

// RemapCodeSegment grows an RW mapping to newSize, preserving its contents,
// and returns the new slice. The old mapping is released.
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

// MprotectRX seals an RW code mapping to read-execute. Once sealed it must
// not be written to again.
func MprotectRX(code []byte) error {
	if len(code) == 0 {
		return nil
	}
	if err := unix.Mprotect(code, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("mprotect rx: %w", err)
	}
	return nil
}
