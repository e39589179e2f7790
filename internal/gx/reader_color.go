package gx

import (
	asmamd64 "github.com/gxjit/vtxloader/internal/asm/amd64"
)

// Dedicated scratch registers for the colour path, distinct from
// regScrA/regScrB (which the address resolver also uses) and from the
// registers holding live loop state (regSrc, regDst, regCount, regSkip).
const (
	colorScrC = asmamd64.R8
	colorScrD = asmamd64.R9
)

// channelSpec describes how to pull one 8-bit output channel out of a
// packed colour word and replicate it to full range, mirroring the shift
// pairs in expandColor565/expandColor4444/expandColor6666 (format_tables.go).
type channelSpec struct {
	extractShift byte
	bits         int32
	replLeft     byte
	replRight    byte
	destByte     byte // 0=R, 1=G, 2=B, 3=A
}

func channelSpecs(format ColorFormat) []channelSpec {
	switch format {
	case Color16B565:
		return []channelSpec{
			{11, 0x1F, 3, 2, 0},
			{5, 0x3F, 2, 4, 1},
			{0, 0x1F, 3, 2, 2},
		}
	case Color16B4444:
		return []channelSpec{
			{12, 0xF, 4, 0, 0},
			{8, 0xF, 4, 0, 1},
			{4, 0xF, 4, 0, 2},
			{0, 0xF, 4, 0, 3},
		}
	case Color24B6666:
		return []channelSpec{
			{18, 0x3F, 2, 4, 0},
			{12, 0x3F, 2, 4, 1},
			{6, 0x3F, 2, 4, 2},
			{0, 0x3F, 2, 4, 3},
		}
	default:
		return nil // 888/888x/8888 need no bit expansion
	}
}

// readColorDirect emits the bit-expansion sequence for a DIRECT colour
// attribute at [regSrc+srcOfs], storing 4 native bytes (R,G,B,A ascending)
// at [regDst+dstOfs] (spec §4.3).
//
// 565/4444/6666 pack several channels into one big-endian word and need a
// byteswap before the channel bits can be extracted; 888/888x/8888 are
// already independent bytes in source order and need none.
func readColorDirect(ctx *genCtx, format ColorFormat, srcOfs, dstOfs int32) {
	as := ctx.as

	switch format {
	case Color16B565, Color16B4444:
		as.MovzxRegMem(asmamd64.MOVWLZX, regSrc, srcOfs, regScrA)
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 16)
	case Color24B6666:
		as.MovRegMem(asmamd64.MOVL, regSrc, srcOfs, regScrA) // 4-byte over-read
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 8) // drop the over-read byte
	case Color24B888, Color32B888x, Color32B8888:
		as.MovRegMem(asmamd64.MOVL, regSrc, srcOfs, regScrA)
	default:
		panic("BUG: invalid ColorFormat")
	}

	switch {
	case ctx.cpu.HasExtra(extraBMI2) && (format == Color16B565 || format == Color16B4444):
		emitPdepExpand(as, format)
	default:
		if specs := channelSpecs(format); specs != nil {
			emitChannelExpand(as, specs)
		} else if format != Color32B8888 {
			as.AluRegImm32(asmamd64.ORL, regScrA, int32(uint32(0xFF)<<24)) // force alpha opaque
		}
	}

	if format == Color16B565 {
		as.AluRegImm32(asmamd64.ORL, regScrA, int32(uint32(0xFF)<<24)) // 565 carries no alpha bits
	}

	as.MovMemReg(asmamd64.MOVL, regScrA, regDst, dstOfs)
}

// emitPdepExpand expands a 565 or 4444 colour using two BMI2 PDEP deposits
// instead of the shift/mask/or sequence: the hiMask deposit is cleared of
// every bit loMask covers, the two are OR'ed together, and the result (red
// in the top byte) is byte-swapped so the stored bytes are R,G,B,A
// ascending, the same word the fallback path produces (spec §4.3).
func emitPdepExpand(as *asmamd64.Assembler, format ColorFormat) {
	var loMask, hiMask uint32
	switch format {
	case Color16B565:
		loMask, hiMask = mask565Lo, mask565Hi
	case Color16B4444:
		loMask, hiMask = mask4444Lo, mask4444Hi
	default:
		panic("BUG: emitPdepExpand only supports 565/4444")
	}
	as.MovRegImm32(asmamd64.MOVL, int32(loMask), regScrB)
	as.Pdep(colorScrC, regScrA, regScrB)
	as.MovRegImm32(asmamd64.MOVL, int32(hiMask), regScrB)
	as.Pdep(colorScrD, regScrA, regScrB)
	as.AluRegImm32(asmamd64.ANDL, colorScrD, int32(^loMask))
	as.OrRegReg(colorScrD, colorScrC)
	as.Bswap(colorScrC)
	as.MovRegReg(asmamd64.MOVL, colorScrC, regScrA)
}

// emitChannelExpand extracts and replicates each channel of specs out of
// regScrA, leaving the assembled little-endian RGBA dword back in regScrA.
// regScrA itself is never overwritten until every channel has been read out
// of it.
func emitChannelExpand(as *asmamd64.Assembler, specs []channelSpec) {
	acc := regScrB
	as.MovRegImm32(asmamd64.MOVL, 0, acc)

	for _, c := range specs {
		as.MovRegReg(asmamd64.MOVL, regScrA, colorScrC)
		as.ShiftRegImm8(asmamd64.SHRL, colorScrC, c.extractShift)
		as.AluRegImm32(asmamd64.ANDL, colorScrC, c.bits)

		as.MovRegReg(asmamd64.MOVL, colorScrC, colorScrD)
		as.ShiftRegImm8(asmamd64.SHLL, colorScrD, c.replLeft)
		as.ShiftRegImm8(asmamd64.SHRL, colorScrC, c.replRight)
		as.OrRegReg(colorScrC, colorScrD) // colorScrD = replicated 8-bit channel

		as.ShiftRegImm8(asmamd64.SHLL, colorScrD, c.destByte*8)
		as.OrRegReg(colorScrD, acc)
	}

	as.MovRegReg(asmamd64.MOVL, acc, regScrA)
}
