package gx

import (
	asmamd64 "github.com/gxjit/vtxloader/internal/asm/amd64"
)

// numericLoadOp returns the narrowest SIMD load that can fetch lanes
// elements of elemSize bytes in one instruction (spec §4.2: "narrowest load
// that covers the attribute").
func numericLoadOp(elemSize, lanes int) asmamd64.Instruction {
	n := elemSize * lanes
	switch {
	case n <= 4:
		return asmamd64.MOVD_XMM
	case n <= 8:
		return asmamd64.MOVQ_XMM
	default:
		return asmamd64.MOVDQU_XMM
	}
}

// numericStoreOp returns the narrowest SIMD store for lanes float32 output
// components.
func numericStoreOp(lanes int) asmamd64.Instruction {
	switch {
	case lanes == 1:
		return asmamd64.MOVSS_STORE
	case lanes == 2:
		return asmamd64.MOVLPS_STORE
	default:
		return asmamd64.MOVUPS_STORE
	}
}

// readNumericDirect emits the gather/byteswap/sign-extend/dequantize/store
// sequence for a numeric attribute read from [base+srcOfs] into
// [regDst+dstOfs] as `lanes` float32 components (spec §4.2). base is
// regSrc for a DIRECT attribute, or the resolved per-vertex array-element
// address (copied into a dedicated register by the caller) for an indexed
// one.
//
// scaleAddr is the absolute address of the float32 multiplier to apply to
// integer formats: a ScaleTable slot for position and texcoords, or a
// constant interned by genCtx.internScale for a normal's fixed exponent.
// A nil scaleAddr skips the multiply; float formats are never scaled.
func readNumericDirect(ctx *genCtx, attr NumericAttr, lanes int, base asmamd64.Register, srcOfs, dstOfs int32, scaleAddr *uintptr, xTmp, xScale asmamd64.Register) {
	as := ctx.as
	elemSize := attr.Format.elementSize()

	as.SSELoadMem(numericLoadOp(elemSize, lanes), base, srcOfs, xTmp)

	if attr.Format.isFloat() {
		mask := floatShuffleMask(lanes)
		loadShuffleMask(ctx, mask, xScale)
		as.SSERegReg(asmamd64.PSHUFB_XMM, xScale, xTmp)
		as.SSEStoreMem(numericStoreOp(lanes), xTmp, regDst, dstOfs)
		return
	}

	mask := intShuffleMask(elemSize, lanes)
	if !attr.Format.signed() {
		// Unsigned: move each gathered element from the top to the bottom
		// of its lane, so it arrives zero-extended and needs no shift.
		var low [16]byte
		for i := range low {
			low[i] = 0xFF
			if i%4 < elemSize {
				low[i] = mask[i+4-elemSize]
			}
		}
		mask = low
	}
	loadShuffleMask(ctx, mask, xScale)
	as.SSERegReg(asmamd64.PSHUFB_XMM, xScale, xTmp)
	if attr.Format.signed() {
		as.SSEShiftImm8(asmamd64.PSRAD_XMM, xTmp, uint8(shiftAmountFor(elemSize)))
	}
	as.SSERegReg(asmamd64.CVTDQ2PS, xTmp, xTmp)

	if scaleAddr != nil {
		loadScaleBroadcast(ctx, *scaleAddr, xScale)
		as.SSERegReg(asmamd64.MULPS_XMM, xScale, xTmp)
	}

	as.SSEStoreMem(numericStoreOp(lanes), xTmp, regDst, dstOfs)
}

// addrScratch is the GPR used to materialize absolute addresses of interned
// constant data while reading a numeric attribute. It is deliberately not
// regScrA/regScrB (the address resolver's scratch pair, which may still
// hold a resolved index-array base the caller has not yet consumed) nor any
// register carrying live loop state.
const addrScratch = colorScrC

// loadShuffleMask materializes a 16-byte PSHUFB control mask into reg. The
// mask bytes have no encoding as an SSE immediate, so each distinct mask is
// interned as pinned heap data (genCtx.internMask) and loaded through its
// absolute address, the same technique used for the CPState/ScaleTable
// fields (gxstate.go, scale.go).
func loadShuffleMask(ctx *genCtx, mask [16]byte, reg asmamd64.Register) {
	addr := ctx.internMask(mask)
	ctx.as.MovRegImm64(uint64(addr), addrScratch)
	ctx.as.SSELoadMem(asmamd64.MOVDQU_XMM, addrScratch, 0, reg)
}

// loadScaleBroadcast loads the float32 at addr and broadcasts it to every
// lane of reg via PSHUFD imm8=0 (spec §4.2: "broadcast the scalar scale
// across the lane count actually written").
func loadScaleBroadcast(ctx *genCtx, addr uintptr, reg asmamd64.Register) {
	ctx.as.MovRegImm64(uint64(addr), addrScratch)
	ctx.as.SSELoadMem(asmamd64.MOVD_XMM, addrScratch, 0, reg)
	ctx.as.SSERegRegImm8(asmamd64.PSHUFD_XMM, reg, reg, 0)
}
