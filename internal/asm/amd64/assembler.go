package asm_amd64

import (
	"fmt"

	"github.com/gxjit/vtxloader/internal/asm"
)

// Label marks a position in the instruction stream that a Jump can target.
// It may be bound (Assembler.Bind) either before or after the jumps that
// reference it: the decoder generator emits one backward jump (the loop
// back-edge, whose label is bound before the jump is emitted) and forward
// jumps whose labels are bound after (the loop-exit test, the jump over the
// skip-count increment, and, for an indexed position, the sentinel skip
// branch, spec §4.1/§4.4).
type Label struct {
	offset int
	bound  bool
}

type pendingJump struct {
	patchOffset int // offset of the 4-byte rel32 field
	target      *Label
}

// Assembler emits x86-64 machine code for a single straight-line routine
// directly into a CodeSegment. Unlike a general-purpose assembler it does
// not support relaxation between short and near jump encodings: every
// conditional/unconditional jump is encoded with a 32-bit displacement up
// front, so patching a forward reference never changes any other
// instruction's length or offset (this is a deliberate simplification of
// wazero's internal/asm relaxing assembler — see DESIGN.md).
type Assembler struct {
	seg   *asm.CodeSegment
	jumps []pendingJump
}

// NewAssembler wraps seg for code emission.
func NewAssembler(seg *asm.CodeSegment) *Assembler {
	return &Assembler{seg: seg}
}

// Offset returns the current write position, usable as a plain numeric
// reference (e.g. to remember "the source offset at which this field was
// read") distinct from a jump-target Label.
func (a *Assembler) Offset() int { return a.seg.Len() }

// NewLabel creates an unbound label.
func (a *Assembler) NewLabel() *Label { return &Label{} }

// Bind fixes l to the current write position.
func (a *Assembler) Bind(l *Label) {
	l.offset = a.seg.Len()
	l.bound = true
}

// Finalize patches every jump's displacement now that all labels are bound
// and returns the assembled machine code. It does not seal the segment.
func (a *Assembler) Finalize() ([]byte, error) {
	for _, j := range a.jumps {
		if !j.target.bound {
			return nil, fmt.Errorf("BUG: jump at offset %d has unbound target", j.patchOffset)
		}
		disp := int32(j.target.offset - (j.patchOffset + 4))
		a.seg.PatchUint32LE(j.patchOffset, uint32(disp))
	}
	return a.seg.Bytes(), nil
}

// ---- control flow ----

// Jump emits a near (rel32) jump of the given kind (JMP, JEQ, JNE) to
// target, which must later be Bind-ed (if it is not already).
func (a *Assembler) Jump(instruction asm.Instruction, target *Label) {
	if instruction == JMP {
		a.seg.WriteByte(0xE9)
	} else {
		cc, ok := conditionCode(instruction)
		if !ok {
			panic("BUG: Jump called with non-jump instruction")
		}
		a.seg.WriteByte(0x0F)
		a.seg.WriteByte(0x80 | cc)
	}
	patchOffset := a.seg.Len()
	a.seg.WriteUint32LE(0)
	a.jumps = append(a.jumps, pendingJump{patchOffset: patchOffset, target: target})
}

// Ret emits a RET.
func (a *Assembler) Ret() { a.seg.WriteByte(0xC3) }

// ---- general-purpose register instructions ----

// Push emits PUSH reg (64-bit).
func (a *Assembler) Push(reg asm.Register) {
	if isExtended(reg) {
		a.seg.WriteByte(rex(false, asm.NilRegister, asm.NilRegister, reg))
	}
	a.seg.WriteByte(0x50 + regNum(reg))
}

// Pop emits POP reg (64-bit).
func (a *Assembler) Pop(reg asm.Register) {
	if isExtended(reg) {
		a.seg.WriteByte(rex(false, asm.NilRegister, asm.NilRegister, reg))
	}
	a.seg.WriteByte(0x58 + regNum(reg))
}

// MovRegReg emits MOVL/MOVQ dst, src (register to register).
func (a *Assembler) MovRegReg(instruction asm.Instruction, src, dst asm.Register) {
	w := instruction == MOVQ
	a.emitRex(w, src, asm.NilRegister, dst)
	a.seg.WriteByte(0x89)
	a.seg.WriteByte(modRMReg(regNum(src), regNum(dst)))
}

// MovRegMem emits MOVL/MOVQ dst, [base+disp] (load).
func (a *Assembler) MovRegMem(instruction asm.Instruction, base asm.Register, disp int32, dst asm.Register) {
	w := instruction == MOVQ
	a.emitRex(w, dst, asm.NilRegister, base)
	a.seg.WriteByte(0x8B)
	a.appendMem(regNum(dst), base, disp)
}

// MovRegMemIndexed emits MOVL/MOVQ dst, [base+index*scale+disp] (load).
func (a *Assembler) MovRegMemIndexed(instruction asm.Instruction, base, index asm.Register, scale byte, disp int32, dst asm.Register) {
	w := instruction == MOVQ
	a.emitRex(w, dst, index, base)
	a.seg.WriteByte(0x8B)
	a.appendMemIndexed(regNum(dst), base, index, scale, disp)
}

// MovMemReg emits MOVL/MOVQ [base+disp], src (store).
func (a *Assembler) MovMemReg(instruction asm.Instruction, src asm.Register, base asm.Register, disp int32) {
	w := instruction == MOVQ
	a.emitRex(w, src, asm.NilRegister, base)
	a.seg.WriteByte(0x89)
	a.appendMem(regNum(src), base, disp)
}

// MovRegImm32 emits MOVL dst, imm32 or MOVQ dst, imm32 (sign-extended
// mov r/m64, imm32 form).
func (a *Assembler) MovRegImm32(instruction asm.Instruction, imm int32, dst asm.Register) {
	w := instruction == MOVQ
	if w {
		a.emitRex(true, asm.NilRegister, asm.NilRegister, dst)
		a.seg.WriteByte(0xC7)
		a.seg.WriteByte(modRMReg(0, regNum(dst)))
		a.seg.WriteUint32LE(uint32(imm))
		return
	}
	a.emitRex(false, asm.NilRegister, asm.NilRegister, dst)
	a.seg.WriteByte(0xB8 + regNum(dst))
	a.seg.WriteUint32LE(uint32(imm))
}

// MovRegImm64 emits MOVABS dst, imm64 (0xB8+reg with a REX.W prefix and a
// full 8-byte immediate), the only way to materialize an absolute address
// that does not fit in a sign-extended 32-bit immediate.
func (a *Assembler) MovRegImm64(imm uint64, dst asm.Register) {
	a.emitRex(true, asm.NilRegister, asm.NilRegister, dst)
	a.seg.WriteByte(0xB8 + regNum(dst))
	a.seg.WriteUint64LE(imm)
}

// MovzxRegMem emits MOVBLZX/MOVWLZX dst, [base+disp].
func (a *Assembler) MovzxRegMem(instruction asm.Instruction, base asm.Register, disp int32, dst asm.Register) {
	a.emitRex(false, dst, asm.NilRegister, base)
	a.seg.WriteByte(0x0F)
	if instruction == MOVBLZX {
		a.seg.WriteByte(0xB6)
	} else {
		a.seg.WriteByte(0xB7)
	}
	a.appendMem(regNum(dst), base, disp)
}

// Lea emits LEAQ dst, [base+disp].
func (a *Assembler) Lea(base asm.Register, disp int32, dst asm.Register) {
	a.emitRex(true, dst, asm.NilRegister, base)
	a.seg.WriteByte(0x8D)
	a.appendMem(regNum(dst), base, disp)
}

// LeaIndexed emits LEAQ dst, [base+index*scale+disp].
func (a *Assembler) LeaIndexed(base, index asm.Register, scale byte, disp int32, dst asm.Register) {
	a.emitRex(true, dst, index, base)
	a.seg.WriteByte(0x8D)
	a.appendMemIndexed(regNum(dst), base, index, scale, disp)
}

// Bswap emits BSWAPL reg.
func (a *Assembler) Bswap(reg asm.Register) {
	a.emitRex(false, asm.NilRegister, asm.NilRegister, reg)
	a.seg.WriteByte(0x0F)
	a.seg.WriteByte(0xC8 + regNum(reg))
}

// aluOpcodeExt returns the /digit ModRM extension used by the 81 /n id
// group-1 opcode for the given ALU instruction.
func aluOpcodeExt(instruction asm.Instruction) byte {
	switch instruction {
	case ADDL, ADDQ:
		return 0
	case ORL:
		return 1
	case ANDL:
		return 4
	case SUBQ:
		return 5
	case CMPL:
		return 7
	default:
		panic("BUG: not a group-1 ALU instruction")
	}
}

// AddRegReg emits ADDQ dst, src (register-to-register, 64-bit, 0x01 /r):
// dst += src.
func (a *Assembler) AddRegReg(src, dst asm.Register) {
	a.emitRex(true, src, asm.NilRegister, dst)
	a.seg.WriteByte(0x01)
	a.seg.WriteByte(modRMReg(regNum(src), regNum(dst)))
}

// OrRegReg emits ORL dst, src (register-to-register, 0x09 /r): dst |= src.
func (a *Assembler) OrRegReg(src, dst asm.Register) {
	a.emitRex(false, src, asm.NilRegister, dst)
	a.seg.WriteByte(0x09)
	a.seg.WriteByte(modRMReg(regNum(src), regNum(dst)))
}

// AluRegImm32 emits one of ADDL/ADDQ/SUBQ/ANDL/ORL/CMPL reg, imm32.
func (a *Assembler) AluRegImm32(instruction asm.Instruction, reg asm.Register, imm int32) {
	w := instruction == ADDQ || instruction == SUBQ
	a.emitRex(w, asm.NilRegister, asm.NilRegister, reg)
	a.seg.WriteByte(0x81)
	a.seg.WriteByte(modRMReg(aluOpcodeExt(instruction), regNum(reg)))
	a.seg.WriteUint32LE(uint32(imm))
}

// ImulRegReg emits IMULL dst, src (two-operand form, 0F AF /r): dst *= src.
func (a *Assembler) ImulRegReg(src, dst asm.Register) {
	a.emitRex(false, dst, asm.NilRegister, src)
	a.seg.WriteByte(0x0F)
	a.seg.WriteByte(0xAF)
	a.seg.WriteByte(modRMReg(regNum(dst), regNum(src)))
}

// ShiftRegImm8 emits SHLL/SHRL reg, imm8.
func (a *Assembler) ShiftRegImm8(instruction asm.Instruction, reg asm.Register, imm uint8) {
	var ext byte
	if instruction == SHLL {
		ext = 4
	} else {
		ext = 5
	}
	a.emitRex(false, asm.NilRegister, asm.NilRegister, reg)
	a.seg.WriteByte(0xC1)
	a.seg.WriteByte(modRMReg(ext, regNum(reg)))
	a.seg.WriteByte(imm)
}

// Pdep emits PDEP dst, src, mask (VEX.NDS.LZ.F2.0F38.W0 F5 /r), BMI2.
func (a *Assembler) Pdep(dst, src, mask asm.Register) {
	// 3-byte VEX: C4 [R X B mmmmm] [W vvvv L pp]
	rBit := byte(0)
	if !isExtended(dst) {
		rBit = 1 // inverted
	}
	xBit := byte(1) // no index, inverted bit of 0 is 1
	bBit := byte(0)
	if !isExtended(mask) {
		bBit = 1 // inverted
	}
	a.seg.WriteByte(0xC4)
	a.seg.WriteByte(rBit<<7 | xBit<<6 | bBit<<5 | 0x02) // mmmmm=00010 (0F38)
	vvvv := ^regNum4(src) & 0xF
	a.seg.WriteByte(0<<7 | vvvv<<3 | 0<<2 | 0x3) // W=0, L=0, pp=11(F2)
	a.seg.WriteByte(0xF5)
	a.seg.WriteByte(modRMReg(regNum(dst), regNum(mask)))
}

func regNum4(r asm.Register) byte { return byte(r) & 0xF }

// ---- SSE/AVX instructions ----

// sseLoad returns the mandatory prefix and two-byte opcode for the
// given SIMD load instruction.
func sseLoad(instruction asm.Instruction) (prefix byte, opcode1, opcode2 byte) {
	switch instruction {
	case MOVD_XMM:
		return 0x66, 0x0F, 0x6E
	case MOVQ_XMM:
		return 0xF3, 0x0F, 0x7E
	case MOVDQU_XMM:
		return 0xF3, 0x0F, 0x6F
	default:
		panic("BUG: not a supported SIMD load")
	}
}

// MovGPRToXMM emits MOVD xmm, r32 (66 0F 6E /r, register-direct form):
// moves a 32-bit GPR value into the low dword of an XMM register, the
// register-operand counterpart of the MOVD_XMM memory load above.
func (a *Assembler) MovGPRToXMM(src asm.Register, dst asm.Register) {
	a.seg.WriteByte(0x66)
	a.emitRex(false, dst, asm.NilRegister, src)
	a.seg.WriteByte(0x0F)
	a.seg.WriteByte(0x6E)
	a.seg.WriteByte(modRMReg(regNum(dst), regNum(src)))
}

// SSELoadMem emits a SIMD load xmm <- [base+disp].
func (a *Assembler) SSELoadMem(instruction asm.Instruction, base asm.Register, disp int32, dst asm.Register) {
	prefix, op1, op2 := sseLoad(instruction)
	a.seg.WriteByte(prefix)
	a.emitRex(false, dst, asm.NilRegister, base)
	a.seg.WriteByte(op1)
	a.seg.WriteByte(op2)
	a.appendMem(regNum(dst), base, disp)
}

// sseRegRegOpcode returns the mandatory prefix (0 if none) and opcode bytes
// for two-operand xmm<-xmm instructions where ModRM.reg is the
// destination.
func sseRegRegOpcode(instruction asm.Instruction) (prefix byte, opcode []byte) {
	switch instruction {
	case MOVAPS_XMM:
		return 0, []byte{0x0F, 0x28}
	case PSHUFB_XMM:
		return 0x66, []byte{0x0F, 0x38, 0x00}
	case CVTDQ2PS:
		return 0, []byte{0x0F, 0x5B}
	case MULPS_XMM:
		return 0, []byte{0x0F, 0x59}
	default:
		panic("BUG: not a supported SIMD reg-reg instruction")
	}
}

// SSERegReg emits a two-operand SIMD reg<-reg instruction (dst is both an
// input and the destination for PSHUFB/MULPS; src-only for MOVAPS/CVTDQ2PS).
func (a *Assembler) SSERegReg(instruction asm.Instruction, src, dst asm.Register) {
	prefix, opcode := sseRegRegOpcode(instruction)
	if prefix != 0 {
		a.seg.WriteByte(prefix)
	}
	a.emitRex(false, dst, asm.NilRegister, src)
	for _, b := range opcode {
		a.seg.WriteByte(b)
	}
	a.seg.WriteByte(modRMReg(regNum(dst), regNum(src)))
}

// SSERegRegImm8 emits PSHUFD dst, src, imm8 (lane-broadcast shuffle).
func (a *Assembler) SSERegRegImm8(instruction asm.Instruction, src, dst asm.Register, imm8 byte) {
	if instruction != PSHUFD_XMM {
		panic("BUG: only PSHUFD_XMM takes a reg,reg,imm8 form")
	}
	a.seg.WriteByte(0x66)
	a.emitRex(false, dst, asm.NilRegister, src)
	a.seg.WriteByte(0x0F)
	a.seg.WriteByte(0x70)
	a.seg.WriteByte(modRMReg(regNum(dst), regNum(src)))
	a.seg.WriteByte(imm8)
}

// SSEShiftImm8 emits PSRAD reg, imm8 (66 0F 72 /4 ib).
func (a *Assembler) SSEShiftImm8(instruction asm.Instruction, reg asm.Register, imm8 byte) {
	if instruction != PSRAD_XMM {
		panic("BUG: only PSRAD_XMM is a supported SIMD shift-imm8")
	}
	a.seg.WriteByte(0x66)
	a.emitRex(false, asm.NilRegister, asm.NilRegister, reg)
	a.seg.WriteByte(0x0F)
	a.seg.WriteByte(0x72)
	a.seg.WriteByte(modRMReg(4, regNum(reg)))
	a.seg.WriteByte(imm8)
}

// sseStore returns the mandatory prefix and two-byte opcode for a
// SIMD store instruction.
func sseStore(instruction asm.Instruction) (prefix byte, opcode1, opcode2 byte) {
	switch instruction {
	case MOVSS_STORE:
		return 0xF3, 0x0F, 0x11
	case MOVLPS_STORE:
		return 0, 0x0F, 0x13
	case MOVUPS_STORE:
		return 0, 0x0F, 0x11
	default:
		panic("BUG: not a supported SIMD store")
	}
}

// SSEStoreMem emits a SIMD store [base+disp] <- src.
func (a *Assembler) SSEStoreMem(instruction asm.Instruction, src asm.Register, base asm.Register, disp int32) {
	prefix, op1, op2 := sseStore(instruction)
	if prefix != 0 {
		a.seg.WriteByte(prefix)
	}
	a.emitRex(false, src, asm.NilRegister, base)
	a.seg.WriteByte(op1)
	a.seg.WriteByte(op2)
	a.appendMem(regNum(src), base, disp)
}
