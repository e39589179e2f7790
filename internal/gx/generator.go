package gx

import (
	"fmt"

	"github.com/gxjit/vtxloader/internal/asm"
	asmamd64 "github.com/gxjit/vtxloader/internal/asm/amd64"
	"github.com/gxjit/vtxloader/internal/platform"
)

const extraBMI2 = platform.CpuExtraFeatureBMI2

// genCtx carries everything a single Generate call threads through the
// resolver/reader emitters: the assembler, the CPU features to specialize
// for, the shared CPState the routine will read array bases/strides from,
// and the pools of interned constant data (shuffle masks, scale table) the
// routine addresses by absolute pointer (invariant I5).
type genCtx struct {
	as    *asmamd64.Assembler
	cpu   platform.CpuFeatureFlags
	state *CPState
	scale *ScaleTable

	masks       map[[16]byte]uintptr
	pinnedMasks []*[16]byte // keeps interned mask arrays alive/stable for the routine's lifetime

	scales       map[float32]uintptr
	pinnedScales []*float32 // keeps interned scale constants alive/stable
}

func newGenCtx(as *asmamd64.Assembler, cpu platform.CpuFeatureFlags, state *CPState, scale *ScaleTable) *genCtx {
	return &genCtx{
		as: as, cpu: cpu, state: state, scale: scale,
		masks:  map[[16]byte]uintptr{},
		scales: map[float32]uintptr{},
	}
}

// internMask returns the stable absolute address of mask, allocating and
// pinning a copy the first time a distinct mask value is seen.
func (ctx *genCtx) internMask(mask [16]byte) uintptr {
	if addr, ok := ctx.masks[mask]; ok {
		return addr
	}
	p := new([16]byte)
	*p = mask
	ctx.pinnedMasks = append(ctx.pinnedMasks, p)
	addr := addrOfMaskArray(p)
	ctx.masks[mask] = addr
	return addr
}

// internScale returns the stable absolute address of a compile-time-fixed
// float32 multiplier (e.g. a normal's format-fixed dequantization scale),
// using the same append-and-pin technique as internMask. Unlike
// ScaleTable's slots, which the batch driver refreshes every draw call,
// values interned here never change after generation.
func (ctx *genCtx) internScale(v float32) uintptr {
	if addr, ok := ctx.scales[v]; ok {
		return addr
	}
	p := new(float32)
	*p = v
	ctx.pinnedScales = append(ctx.pinnedScales, p)
	addr := addrOfFloat32(p)
	ctx.scales[v] = addr
	return addr
}

// constPool keeps the heap-pinned shuffle masks and fixed-scale constants a
// generated routine addresses directly alive for as long as the routine
// itself; the code holds only raw addresses into this data; Go's GC knows
// nothing about them, so whatever retains the routine (the owning Loader)
// must also retain this pool.
type constPool struct {
	masks  []*[16]byte
	scales []*float32
}

// Generate builds the specializing decoder for one (VtxDesc, VAT) pair,
// returning the sealed code segment, the native layout it decodes into,
// and the constant pool its code addresses (spec §4.4). state is the live
// CPState the routine will read array bases/strides from at execution
// time; scale is the live ScaleTable it will read dequantization
// multipliers from. Both, and the returned pool, must outlive every call
// to the resulting Loader.
func Generate(desc VtxDesc, vat VAT, cpu platform.CpuFeatureFlags, state *CPState, scale *ScaleTable) (*asm.CodeSegment, VertexFormat, *constPool, error) {
	if !cpu.Has(platform.CpuFeatureSSSE3) {
		return nil, VertexFormat{}, nil, fmt.Errorf("generate decoder: host CPU lacks SSSE3 (PSHUFB)")
	}
	seg, err := asm.NewCodeSegment(4096)
	if err != nil {
		return nil, VertexFormat{}, nil, fmt.Errorf("generate decoder: %w", err)
	}
	as := asmamd64.NewAssembler(seg)
	ctx := newGenCtx(as, cpu, state, scale)

	format := emitPrologueAndBody(ctx, desc, vat)

	if _, err := as.Finalize(); err != nil {
		return nil, VertexFormat{}, nil, fmt.Errorf("generate decoder: %w", err)
	}
	if err := seg.Seal(); err != nil {
		return nil, VertexFormat{}, nil, fmt.Errorf("generate decoder: %w", err)
	}
	pool := &constPool{masks: ctx.pinnedMasks, scales: ctx.pinnedScales}
	return seg, format, pool, nil
}

// emitPrologueAndBody walks the canonical GX attribute order (position-
// matrix-index and texture-matrix-index source bytes, position, normal,
// colour0/1, texcoord0-7 with their texture-matrix-index lanes, then the
// position-matrix-index destination word), emitting the per-vertex decode
// loop (spec §4.4):
//
//	prologue: save callee-saved scratch, zero the skip counter
//	loop:     test count; for each present attribute, resolve + read it;
//	          position sentinel check plants the forward "skip" jump;
//	          advance src/dst by their final per-vertex strides; loop
//	epilogue: restore callee-saved scratch, return the skip count in AX
func emitPrologueAndBody(ctx *genCtx, desc VtxDesc, vat VAT) VertexFormat {
	as := ctx.as
	var format VertexFormat

	as.Push(asmamd64.BX)
	as.Push(asmamd64.R12)
	as.MovRegImm32(asmamd64.MOVL, 0, regSkip)

	loopTop := as.NewLabel()
	loopEnd := as.NewLabel()
	as.Bind(loopTop)
	as.AluRegImm32(asmamd64.CMPL, regCount, 0)
	as.Jump(asmamd64.JEQ, loopEnd)

	srcOfs := int32(0)
	dstOfs := int32(0)
	skipVertex := as.NewLabel()

	// Position-matrix-index and the eight texture-matrix-index bytes sit at
	// the very front of the source vertex; only their source offsets are
	// recorded here (spec §4.4 steps 3-4). The position-matrix-index byte
	// itself is read, masked and written to the destination last (step 9),
	// since that destination word always comes after every other attribute
	// in canonical order, while its source byte comes first.
	if desc.PosMatIdx {
		srcOfs++
	}
	var texMatIdxOfs [8]int32
	for i := 0; i < 8; i++ {
		if desc.TexMatIdx[i] {
			texMatIdxOfs[i] = srcOfs
			srcOfs++
		}
	}

	if desc.Position != PresenceNone {
		srcOfs, dstOfs = emitPosition(ctx, desc, vat, srcOfs, dstOfs, &format, skipVertex)
	}

	srcOfs, dstOfs = emitNormal(ctx, desc, vat, srcOfs, dstOfs, &format)
	srcOfs, dstOfs = emitColor(ctx, desc, vat, 0, srcOfs, dstOfs, &format)
	srcOfs, dstOfs = emitColor(ctx, desc, vat, 1, srcOfs, dstOfs, &format)
	for i := 0; i < 8; i++ {
		srcOfs, dstOfs = emitTexCoord(ctx, desc, vat, i, srcOfs, dstOfs, texMatIdxOfs[i], &format)
	}

	// Position-matrix-index word: unconditional (spec §4.4 step 9). When
	// PosMatIdx is absent the byte never appeared in the source vertex, so
	// the fallback instead reads the live g_main_cp_state.matrix_index_a
	// global by the absolute address captured at generation time -- the
	// value, not the address, varies per draw call.
	emitPosMatIdx(ctx, desc, dstOfs, &format)
	dstOfs += 4

	advance := as.NewLabel()
	as.Jump(asmamd64.JMP, advance)
	as.Bind(skipVertex)
	as.AluRegImm32(asmamd64.ADDL, regSkip, 1)
	as.Bind(advance)

	as.Lea(regSrc, srcOfs, regSrc)
	as.Lea(regDst, dstOfs, regDst)
	as.AluRegImm32(asmamd64.SUBQ, regCount, 1)
	as.Jump(asmamd64.JMP, loopTop)

	as.Bind(loopEnd)
	as.MovRegReg(asmamd64.MOVL, regSkip, asmamd64.AX) // surface the skip count through the platform return register
	as.Pop(asmamd64.R12)
	as.Pop(asmamd64.BX)
	as.Ret()

	format.VertexSize = int(srcOfs)
	format.NativeStride = int(dstOfs)
	return format
}

// emitPosition resolves and reads the position attribute, planting the
// sentinel-skip forward jump when it is indexed (INDEX8/INDEX16), taken
// when the index equals the format's sentinel value (spec §4.1, "the only attribute whose
// presence check can skip the whole vertex").
func emitPosition(ctx *genCtx, desc VtxDesc, vat VAT, srcOfs, dstOfs int32, format *VertexFormat, skip *asmamd64.Label) (int32, int32) {
	as := ctx.as
	lanes := 2
	if vat.Position.Elements == 1 {
		lanes = 3
	}

	base := regSrc
	readOfs := srcOfs
	switch desc.Position {
	case PresenceIndex8:
		as.MovzxRegMem(asmamd64.MOVBLZX, regSrc, srcOfs, regScrA)
		as.AluRegImm32(asmamd64.CMPL, regScrA, sentinelIndex8)
		as.Jump(asmamd64.JEQ, skip)
		emitArrayElementAddr(as, arrayPosition, ctx.state)
		as.MovRegReg(asmamd64.MOVQ, regScrA, asmamd64.R12)
		base, readOfs = asmamd64.R12, 0
		srcOfs++
	case PresenceIndex16:
		as.MovzxRegMem(asmamd64.MOVWLZX, regSrc, srcOfs, regScrA)
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 16)
		as.AluRegImm32(asmamd64.CMPL, regScrA, sentinelIndex16)
		as.Jump(asmamd64.JEQ, skip)
		emitArrayElementAddr(as, arrayPosition, ctx.state)
		as.MovRegReg(asmamd64.MOVQ, regScrA, asmamd64.R12)
		base, readOfs = asmamd64.R12, 0
		srcOfs += 2
	}

	scaleAddr := ctx.scale.slotAddr(scaleSlotPosition)
	readNumericDirect(ctx, vat.Position, lanes, base, readOfs, dstOfs, &scaleAddr, asmamd64.X0, asmamd64.X1)

	format.Position = Declaration{Enable: true, Offset: int(dstOfs), Components: lanes, Type: DeclFloat32}
	if desc.Position == PresenceDirect {
		srcOfs += int32(vat.Position.Format.elementSize() * lanes)
	}
	dstOfs += int32(4 * lanes)
	return srcOfs, dstOfs
}

// emitPosMatIdx resolves the position-matrix-index word (spec §4.4 step 9):
// PosMatIdx's own byte at source offset 0 when the descriptor carries it,
// else the live matrix_index_a global read by absolute address, masked with
// 0x3F and written as a 32-bit little-endian word regardless.
func emitPosMatIdx(ctx *genCtx, desc VtxDesc, dstOfs int32, format *VertexFormat) {
	as := ctx.as
	if desc.PosMatIdx {
		as.MovzxRegMem(asmamd64.MOVBLZX, regSrc, 0, regScrA)
	} else {
		addr := ctx.state.matrixIndexAAddr()
		as.MovRegImm64(uint64(addr), regScrB)
		as.MovRegMem(asmamd64.MOVL, regScrB, 0, regScrA)
	}
	as.AluRegImm32(asmamd64.ANDL, regScrA, 0x3F)
	as.MovMemReg(asmamd64.MOVL, regScrA, regDst, dstOfs)
	format.PosMatIdxDst = Declaration{Enable: true, Offset: int(dstOfs), Components: 1, Type: DeclUByte}
}

func emitNormal(ctx *genCtx, desc VtxDesc, vat VAT, srcOfs, dstOfs int32, format *VertexFormat) (int32, int32) {
	if desc.Normal == PresenceNone {
		return srcOfs, dstOfs
	}
	as := ctx.as
	count := 1
	if vat.Normal.Elements == 1 {
		count = 3
	}
	lanes := 3

	base := regSrc
	switch desc.Normal {
	case PresenceIndex8:
		as.MovzxRegMem(asmamd64.MOVBLZX, regSrc, srcOfs, regScrA)
		emitArrayElementAddr(as, arrayNormal, ctx.state)
		as.MovRegReg(asmamd64.MOVQ, regScrA, asmamd64.R12)
		base = asmamd64.R12
		srcOfs++
	case PresenceIndex16:
		as.MovzxRegMem(asmamd64.MOVWLZX, regSrc, srcOfs, regScrA)
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 16)
		emitArrayElementAddr(as, arrayNormal, ctx.state)
		as.MovRegReg(asmamd64.MOVQ, regScrA, asmamd64.R12)
		base = asmamd64.R12
		srcOfs += 2
	}

	readBaseOfs := srcOfs
	if base != regSrc {
		readBaseOfs = 0
	}

	scaleAddr := ctx.internScale(scaleFor(normalScale(vat.Normal.Format, vat.NormalIndex3)))
	elemSize := vat.Normal.Format.elementSize()
	for i := 0; i < count; i++ {
		off := readBaseOfs + int32(i*elemSize*lanes)
		readNumericDirect(ctx, vat.Normal, lanes, base, off, dstOfs, &scaleAddr, asmamd64.X0, asmamd64.X1)
		format.Normal[i] = Declaration{Enable: true, Offset: int(dstOfs), Components: lanes, Type: DeclFloat32}
		dstOfs += int32(4 * lanes)
	}
	if desc.Normal == PresenceDirect {
		srcOfs += int32(count * elemSize * lanes)
	}
	return srcOfs, dstOfs
}

func emitColor(ctx *genCtx, desc VtxDesc, vat VAT, idx int, srcOfs, dstOfs int32, format *VertexFormat) (int32, int32) {
	p := desc.Color[idx]
	if p == PresenceNone {
		return srcOfs, dstOfs
	}
	as := ctx.as
	cf := vat.Color[idx]

	switch p {
	case PresenceIndex8:
		as.MovzxRegMem(asmamd64.MOVBLZX, regSrc, srcOfs, regScrA)
		emitArrayElementAddr(as, arrayColor0+idx, ctx.state)
		srcOfs++
		readColorIndexed(ctx, cf, dstOfs)
	case PresenceIndex16:
		as.MovzxRegMem(asmamd64.MOVWLZX, regSrc, srcOfs, regScrA)
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 16)
		emitArrayElementAddr(as, arrayColor0+idx, ctx.state)
		srcOfs += 2
		readColorIndexed(ctx, cf, dstOfs)
	default: // PresenceDirect
		readColorDirect(ctx, cf, srcOfs, dstOfs)
		srcOfs += int32(cf.sourceBytes())
	}

	format.Color[idx] = Declaration{Enable: true, Offset: int(dstOfs), Components: 4, Type: DeclUByte}
	dstOfs += 4
	return srcOfs, dstOfs
}

// readColorIndexed reads a colour whose bytes live in an external array at
// the address already resolved into regScrA, then runs the same expansion
// sequence readColorDirect uses by loading through that address instead of
// [regSrc+ofs].
func readColorIndexed(ctx *genCtx, cf ColorFormat, dstOfs int32) {
	as := ctx.as
	as.MovRegReg(asmamd64.MOVQ, regScrA, asmamd64.R12)
	switch cf {
	case Color16B565, Color16B4444:
		as.MovzxRegMem(asmamd64.MOVWLZX, asmamd64.R12, 0, regScrA)
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 16)
	case Color24B6666:
		as.MovRegMem(asmamd64.MOVL, asmamd64.R12, 0, regScrA)
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 8)
	default:
		as.MovRegMem(asmamd64.MOVL, asmamd64.R12, 0, regScrA)
	}
	finishColorExpand(ctx, cf)
	as.MovMemReg(asmamd64.MOVL, regScrA, regDst, dstOfs)
}

// finishColorExpand runs the shared post-load expansion steps of
// readColorDirect without repeating its load; readColorDirect inlines the
// same steps for the DIRECT case.
func finishColorExpand(ctx *genCtx, format ColorFormat) {
	as := ctx.as
	switch {
	case ctx.cpu.HasExtra(extraBMI2) && (format == Color16B565 || format == Color16B4444):
		emitPdepExpand(as, format)
	default:
		if specs := channelSpecs(format); specs != nil {
			emitChannelExpand(as, specs)
		} else if format != Color32B8888 {
			as.AluRegImm32(asmamd64.ORL, regScrA, int32(uint32(0xFF)<<24))
		}
	}
	if format == Color16B565 {
		as.AluRegImm32(asmamd64.ORL, regScrA, int32(uint32(0xFF)<<24))
	}
}

// emitTexCoord resolves and reads texcoord idx, fusing in its texture-
// matrix-index byte (already recorded at texMatIdxOfs during the initial
// source-offset pass) as one extra lane after the texcoord's own 1 or 2
// lanes when desc.TexMatIdx[idx] is set, or
// synthesizing a {0, idx, 0} triple when the texcoord itself is absent but
// its matrix index is present (spec §4.4 step 8).
func emitTexCoord(ctx *genCtx, desc VtxDesc, vat VAT, idx int, srcOfs, dstOfs int32, texMatIdxOfs int32, format *VertexFormat) (int32, int32) {
	p := desc.TexCoord[idx]
	hasMatIdx := desc.TexMatIdx[idx]

	if p == PresenceNone {
		if !hasMatIdx {
			return srcOfs, dstOfs
		}
		emitSynthesizedTexMatIdxTriple(ctx, texMatIdxOfs, dstOfs)
		format.TexCoord[idx] = Declaration{Enable: true, Offset: int(dstOfs), Components: 3, Type: DeclFloat32}
		return srcOfs, dstOfs + 12
	}

	as := ctx.as
	attr := vat.TexCoord[idx]
	lanes := 1
	if attr.Elements == 1 {
		lanes = 2
	}

	base := regSrc
	readOfs := srcOfs
	switch p {
	case PresenceIndex8:
		as.MovzxRegMem(asmamd64.MOVBLZX, regSrc, srcOfs, regScrA)
		emitArrayElementAddr(as, arrayTexCoord0+idx, ctx.state)
		as.MovRegReg(asmamd64.MOVQ, regScrA, asmamd64.R12)
		base, readOfs = asmamd64.R12, 0
		srcOfs++
	case PresenceIndex16:
		as.MovzxRegMem(asmamd64.MOVWLZX, regSrc, srcOfs, regScrA)
		as.Bswap(regScrA)
		as.ShiftRegImm8(asmamd64.SHRL, regScrA, 16)
		emitArrayElementAddr(as, arrayTexCoord0+idx, ctx.state)
		as.MovRegReg(asmamd64.MOVQ, regScrA, asmamd64.R12)
		base, readOfs = asmamd64.R12, 0
		srcOfs += 2
	}

	scaleAddr := ctx.scale.slotAddr(scaleSlotTexCoord0 + idx)
	readNumericDirect(ctx, attr, lanes, base, readOfs, dstOfs, &scaleAddr, asmamd64.X0, asmamd64.X1)

	components := lanes
	if hasMatIdx {
		emitTexMatIdxLane(ctx, texMatIdxOfs, dstOfs+int32(4*lanes))
		components = lanes + 1
	}

	format.TexCoord[idx] = Declaration{Enable: true, Offset: int(dstOfs), Components: components, Type: DeclFloat32}
	if p == PresenceDirect {
		srcOfs += int32(attr.Format.elementSize() * lanes)
	}
	dstOfs += int32(4 * components)
	return srcOfs, dstOfs
}

// emitTexMatIdxLane converts the texture-matrix-index byte at
// [regSrc+srcOfs] to float32 and stores it as a single scalar lane at
// [regDst+dstOfs].
func emitTexMatIdxLane(ctx *genCtx, srcOfs, dstOfs int32) {
	as := ctx.as
	as.MovzxRegMem(asmamd64.MOVBLZX, regSrc, srcOfs, regScrA)
	as.MovGPRToXMM(regScrA, asmamd64.X0)
	as.SSERegReg(asmamd64.CVTDQ2PS, asmamd64.X0, asmamd64.X0)
	as.SSEStoreMem(asmamd64.MOVSS_STORE, asmamd64.X0, regDst, dstOfs)
}

// emitSynthesizedTexMatIdxTriple writes {0, idx, 0} at [regDst+dstOfs] when
// a texture-matrix index is set but its texcoord is absent.
func emitSynthesizedTexMatIdxTriple(ctx *genCtx, srcOfs, dstOfs int32) {
	as := ctx.as
	as.MovRegImm32(asmamd64.MOVL, 0, regScrB)
	as.MovMemReg(asmamd64.MOVL, regScrB, regDst, dstOfs)
	emitTexMatIdxLane(ctx, srcOfs, dstOfs+4)
	as.MovMemReg(asmamd64.MOVL, regScrB, regDst, dstOfs+8)
}
