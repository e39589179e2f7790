package asm

import (
	"encoding/binary"
	"fmt"

	"github.com/gxjit/vtxloader/internal/platform"
)

// CodeSegment is a single executable-memory mapping backing one generated
// routine. It starts out writable (RW) while the generator appends bytes to
// it and is sealed to read-execute (RX) exactly once, by Seal, matching the
// lifecycle required by the vertex-decoder generator: write-once, then
// read-execute for the remainder of the owning Loader's life.
//
// The zero value is not usable; construct with NewCodeSegment.
type CodeSegment struct {
	code   []byte
	size   int
	sealed bool
}

// NewCodeSegment allocates a fresh RW executable-memory mapping of at least
// initialCapacity bytes (it grows on demand past that).
func NewCodeSegment(initialCapacity int) (*CodeSegment, error) {
	if initialCapacity <= 0 {
		initialCapacity = 4096
	}
	b, err := platform.MmapCodeSegment(initialCapacity)
	if err != nil {
		return nil, fmt.Errorf("allocate code segment: %w", err)
	}
	return &CodeSegment{code: b}, nil
}

// Seal transitions the segment from RW to RX. After Seal, Append/Write* must
// not be called again.
func (seg *CodeSegment) Seal() error {
	if seg.sealed {
		return fmt.Errorf("code segment already sealed")
	}
	if err := platform.MprotectRX(seg.code); err != nil {
		return fmt.Errorf("seal code segment: %w", err)
	}
	seg.sealed = true
	return nil
}

// Release unmaps the segment's backing memory. The Loader that owns this
// segment must not be invoked again afterwards.
func (seg *CodeSegment) Release() error {
	if seg.code == nil {
		return nil
	}
	err := platform.MunmapCodeSegment(seg.code[:cap(seg.code)])
	seg.code = nil
	seg.size = 0
	return err
}

// Addr returns the address of the first byte of the segment.
func (seg *CodeSegment) Addr() uintptr {
	if len(seg.code) == 0 {
		return 0
	}
	return platform.AddressOf(seg.code)
}

// Len returns the number of bytes written to the segment so far.
func (seg *CodeSegment) Len() int { return seg.size }

// Bytes returns the written prefix of the segment.
func (seg *CodeSegment) Bytes() []byte { return seg.code[:seg.size] }

func (seg *CodeSegment) append(n int) []byte {
	if seg.sealed {
		panic("BUG: append to sealed code segment")
	}
	i := seg.size
	j := seg.size + n
	if j > len(seg.code) {
		seg.grow(n)
	}
	seg.size = j
	return seg.code[i:j:j]
}

func (seg *CodeSegment) grow(n int) {
	want := seg.size + n
	size := len(seg.code)
	if size == 0 {
		size = 4096
	}
	for size < want {
		size *= 2
	}
	b, err := platform.RemapCodeSegment(seg.code, size)
	if err != nil {
		// Growing a JIT code buffer only fails if we are out of memory;
		// every caller treats buffer writes as infallible, so panic here
		// rather than threading an error return through every emitter.
		panic(err)
	}
	seg.code = b
}

// WriteByte appends a single byte.
func (seg *CodeSegment) WriteByte(b byte) {
	dst := seg.append(1)
	dst[0] = b
}

// Write appends b verbatim.
func (seg *CodeSegment) Write(b []byte) {
	copy(seg.append(len(b)), b)
}

// WriteUint32LE appends u little-endian.
func (seg *CodeSegment) WriteUint32LE(u uint32) {
	dst := seg.append(4)
	binary.LittleEndian.PutUint32(dst, u)
}

// WriteUint64LE appends u little-endian.
func (seg *CodeSegment) WriteUint64LE(u uint64) {
	dst := seg.append(8)
	binary.LittleEndian.PutUint64(dst, u)
}

// PatchUint32LE overwrites the little-endian uint32 at byte offset off.
func (seg *CodeSegment) PatchUint32LE(off int, u uint32) {
	binary.LittleEndian.PutUint32(seg.code[off:off+4], u)
}
