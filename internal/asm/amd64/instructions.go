package asm_amd64

import "github.com/gxjit/vtxloader/internal/asm"

// Instructions, restricted to exactly the subset the vertex-decoder
// generator emits (spec §4.1-§4.4): general-purpose moves/arithmetic for
// address resolution and the loop skeleton, the SIMD gather-shuffle-convert
// sequence for numeric attributes (§4.2), and the bit-deposit/shift-mask-or
// pair for colour attributes (§4.3).
//
// https://www.felixcloutier.com/x86/index.html
const (
	NONE asm.Instruction = iota

	// General purpose data movement and arithmetic.
	MOVL    // 32-bit mov
	MOVQ    // 64-bit mov
	MOVABSQ // 64-bit mov r64, imm64 (absolute address load)
	LEAQ    // 64-bit load-effective-address
	MOVBLZX // movzx r32, r/m8
	MOVWLZX // movzx r32, r/m16
	BSWAPL  // 32-bit byte swap
	ADDL
	ADDQ
	SUBQ
	ANDL
	ORL
	SHLL
	SHRL
	CMPL // reg/imm32 compare, sets flags for Jcc
	PUSHQ
	POPQ
	RET
	IMULL2 // imul r32, r/m32 (0F AF /r), dst *= src

	// BMI2 parallel-bit-deposit: PDEP dst, src, mask (VEX.NDS.F2.0F38.W0 F5).
	PDEPL

	// SIMD loads (memory -> xmm).
	MOVD_XMM    // 66 0F 6E: load 4 bytes
	MOVQ_XMM    // F3 0F 7E: load 8 bytes
	MOVDQU_XMM  // F3 0F 6F: load 16 bytes
	MOVAPS_XMM  // 0F 28: xmm <- xmm (register copy / broadcast source)
	PSHUFD_XMM  // 66 0F 70 /r ib: lane broadcast
	PSHUFB_XMM  // 66 0F 38 00 /r: gather + big-endian byte swap
	PSRAD_XMM   // 66 0F 72 /4 ib: arithmetic shift right each dword lane
	CVTDQ2PS    // 0F 5B: int32 lanes -> float32 lanes
	MULPS_XMM   // 0F 59: lane-wise float multiply

	// SIMD stores (xmm -> memory).
	MOVSS_STORE  // F3 0F 11: store low 4 bytes
	MOVLPS_STORE // 0F 13: store low 8 bytes
	MOVUPS_STORE // 0F 11: store 16 bytes

	// Conditional jump condition codes, carried as distinct Instruction
	// values so Assembler.Jump's operand alone selects the opcode.
	JMP
	JEQ // ZF=1 (sentinel index matched)
	JNE // ZF=0 (loop continues)
)

// conditionCode returns the x86 Jcc tttn nibble for the given conditional
// jump instruction, or ok=false if instruction is not conditional.
func conditionCode(instruction asm.Instruction) (code byte, ok bool) {
	switch instruction {
	case JEQ:
		return 0x4, true // JE/JZ
	case JNE:
		return 0x5, true // JNE/JNZ
	default:
		return 0, false
	}
}
