package gx

import (
	"sync"
	"unsafe"
)

// numArrays covers the 21 GX attribute arrays: position-matrix-index,
// position, normal, colour0/1, eight texcoords, eight texture-matrix-index
// (the latter share index space with texcoords in real GX but are kept
// distinct here for clarity).
const numArrays = 21

// CPState is the process-wide GX command-processor state the generated
// routines read by absolute address at runtime (spec §6, "External state
// read by emitted code"): per-array base pointers and strides, plus the
// position-matrix-index fallback register. Spec §1 lists this as an
// external collaborator "named by interface only"; CPState is this
// module's concrete instance of that collaborator, refreshed by the
// caller once per draw call (spec §12, "cached_arraybases/array_strides
// are refreshed once per draw call").
//
// Fields are read directly by generated machine code via their addresses
// captured at generation time (invariant I5), so this struct's layout must
// not change shape once a Loader has been generated against it: only the
// slice/array contents, never their addresses, are mutated afterward.
type CPState struct {
	mu sync.Mutex

	// ArrayBases holds cached_arraybases: one pointer-sized base address
	// per attribute array.
	ArrayBases [numArrays]uintptr
	// ArrayStrides holds g_main_cp_state.array_strides: per-element byte
	// stride of each attribute array.
	ArrayStrides [numArrays]uint32
	// MatrixIndexA is g_main_cp_state.matrix_index_a, read at routine
	// execution time (not generation time) whenever PosMatIdx is absent
	// from the descriptor (spec §9, "Position-matrix fallback").
	MatrixIndexA uint32
}

// NewCPState returns a zeroed CPState ready to be populated by SetArray.
func NewCPState() *CPState { return &CPState{} }

// SetArray installs the base address and element stride for one attribute
// array. Callers must hold off invoking any Loader generated against this
// CPState concurrently with SetArray (spec §5: the design forbids
// concurrent decoder invocations against shared state).
func (s *CPState) SetArray(array int, base uintptr, stride uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ArrayBases[array] = base
	s.ArrayStrides[array] = stride
}

// SetMatrixIndexA sets the position-matrix fallback register.
func (s *CPState) SetMatrixIndexA(v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MatrixIndexA = v
}

// arrayBaseAddr and arrayStrideAddr return the absolute address of the
// given array's base-pointer/stride slot, for the generator to capture as
// an immediate operand (spec invariant I5: emitted code touches global
// state only by absolute address captured at emission time).
func (s *CPState) arrayBaseAddr(array int) uintptr {
	return uintptr(unsafe.Pointer(&s.ArrayBases[array]))
}

func (s *CPState) arrayStrideAddr(array int) uintptr {
	return uintptr(unsafe.Pointer(&s.ArrayStrides[array]))
}

func (s *CPState) matrixIndexAAddr() uintptr {
	return uintptr(unsafe.Pointer(&s.MatrixIndexA))
}
