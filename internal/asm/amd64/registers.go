// Package asm_amd64 is the raw x86-64 machine-code emitter the decoder
// generator is built on. Naming follows Go's own assembler
// (https://go.dev/doc/asm), the same convention wazero's internal/asm/amd64
// uses.
package asm_amd64

import (
	"fmt"

	"github.com/gxjit/vtxloader/internal/asm"
)

// General-purpose registers, numbered exactly as the x86-64 ModRM/SIB/REX
// register field expects (AX=0 .. DI=7, R8=8 .. R15=15). Operand width
// (8/16/32/64-bit) is a property of the instruction/REX.W, not of the
// register constant.
const (
	AX asm.Register = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// XMM registers, numbered identically (X0=0 .. X15=15); disambiguated from
// the GPR set above by the instruction that uses them, never by value.
const (
	X0 asm.Register = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
)

func isExtended(r asm.Register) bool { return r != asm.NilRegister && r >= R8 }

func regNum(r asm.Register) byte { return byte(r) & 0x7 }

// RegisterName renders a general-purpose register for diagnostics.
func RegisterName(r asm.Register) string {
	gp := [...]string{"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI",
		"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15"}
	if int(r) < len(gp) {
		return gp[r]
	}
	return "X?"
}

// XMMName renders an XMM register for diagnostics.
func XMMName(r asm.Register) string {
	return fmt.Sprintf("X%d", r)
}
