package gx

import (
	asmamd64 "github.com/gxjit/vtxloader/internal/asm/amd64"
)

// Register allocation for the generated routine, fixed for the whole
// decoder (spec §4.4): the three System V AMD64 integer arguments are kept
// live in their entry registers for the life of the routine rather than
// spilled, since nothing here is complex enough to need them for anything
// else.
const (
	regSrc   = asmamd64.DI // const src *byte
	regDst   = asmamd64.SI // dst *byte
	regCount = asmamd64.DX // remaining vertex count
	regSkip  = asmamd64.CX // running skipped-vertex count, returned to caller
	regScrA  = asmamd64.AX // scratch: index / resolved address
	regScrB  = asmamd64.BX // scratch: stride / base
)

// emitArrayElementAddr computes base(array) + index*stride(array) into
// regScrA, given the index already loaded into regScrA, reading both
// operands from state by the absolute address captured at generation time
// (invariant I5: emitted code touches global state only by absolute
// address fixed when the routine was built).
func emitArrayElementAddr(as *asmamd64.Assembler, arrayIndex int, state *CPState) {
	strideAddr := state.arrayStrideAddr(arrayIndex)
	baseAddr := state.arrayBaseAddr(arrayIndex)

	as.MovRegImm64(uint64(strideAddr), regScrB)
	as.MovRegMem(asmamd64.MOVL, regScrB, 0, regScrB)
	as.ImulRegReg(regScrB, regScrA) // regScrA = index * stride

	as.MovRegImm64(uint64(baseAddr), regScrB)
	as.MovRegMem(asmamd64.MOVQ, regScrB, 0, regScrB) // regScrB = cached array base pointer
	as.AddRegReg(regScrB, regScrA)                   // regScrA = base + index*stride
}
