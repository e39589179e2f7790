// Package asm holds the architecture-independent primitives shared by the
// concrete x86-64 encoder in asm/amd64 and the executable-memory buffer it
// writes into. wazero's internal/asm keeps this layer generic enough to
// back two architectures (amd64 and arm64) behind a common Node/Assembler
// interface; the vertex-decoder core only ever targets amd64 (the reader
// emission in spec §4.2-§4.3 is written directly in terms of SSSE3/BMI2
// instructions), so that interface split is dropped here in favor of a
// single concrete asm_amd64.Assembler — see DESIGN.md.
package asm

// Register represents an architecture-specific register encoding.
type Register byte

// NilRegister indicates that no register operand is present.
const NilRegister Register = 0xff

// Instruction represents an architecture-specific instruction mnemonic.
type Instruction byte

// ConstantValue is a signed immediate or displacement operand.
type ConstantValue = int64
