package gx

import (
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/gxjit/vtxloader/internal/asm"
	"github.com/gxjit/vtxloader/internal/platform"
)

// Loader wraps one generated, sealed decoder routine together with the
// native layout it produces and the constant data it reads. A Loader is
// safe for concurrent Decode calls only if the CPState/ScaleTable it was
// generated against are not mutated concurrently (spec §5).
type Loader struct {
	seg    *asm.CodeSegment
	format VertexFormat
	pool   *constPool
	entry  uintptr
}

// NewLoader generates a decoder for (desc, vat) specialized to cpu's
// available instruction-set extensions, bound to state and scale for
// runtime array/scale reads.
func NewLoader(desc VtxDesc, vat VAT, cpu platform.CpuFeatureFlags, state *CPState, scale *ScaleTable) (*Loader, error) {
	seg, format, pool, err := Generate(desc, vat, cpu, state, scale)
	if err != nil {
		return nil, fmt.Errorf("new loader: %w", err)
	}
	return &Loader{seg: seg, format: format, pool: pool, entry: seg.Addr()}, nil
}

// VertexFormat returns the native layout this Loader decodes into.
func (l *Loader) VertexFormat() VertexFormat { return l.format }

// NativeStride is the destination byte stride per vertex.
func (l *Loader) NativeStride() int { return l.format.NativeStride }

// VertexSize is the source byte stride consumed per vertex.
func (l *Loader) VertexSize() int { return l.format.VertexSize }

// Decode runs the generated routine over count packed vertices starting at
// src, writing count*NativeStride bytes starting at dst. It returns the
// number of vertices the routine skipped (position index equal to the
// format's sentinel, spec §4.1), which is also the number of dst slots left
// untouched at the positions those vertices would have occupied.
//
// The routine's calling convention matches the System V AMD64 ABI: src,
// dst and count arrive in RDI, RSI, RDX, and the skip count is returned in
// RAX, which purego.SyscallN surfaces as its first result.
func (l *Loader) Decode(src, dst uintptr, count uint32) uint32 {
	r1, _, _ := purego.SyscallN(l.entry, src, dst, uintptr(count))
	return uint32(r1)
}

// Release unmaps the routine's executable memory. The Loader must not be
// used again afterward.
func (l *Loader) Release() error {
	return l.seg.Release()
}
