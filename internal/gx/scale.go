package gx

import "unsafe"

// numScaleSlots covers the SIMD dequantization-scale table the generated
// routine indexes by absolute address: slot 0 is position, slots 1-4 are
// unused padding (normal uses a fixed per-format exponent baked in at
// generation time, not a runtime slot), and slots 5-12 are texcoord0-7
// (spec §4.2, "per-attribute multiplicative scale").
const numScaleSlots = 13

const (
	scaleSlotPosition  = 0
	scaleSlotTexCoord0 = 5 // texcoord i uses scaleSlotTexCoord0+i
)

// ScaleTable is the live, per-batch dequantization-scale block a generated
// routine reads by absolute address (MULPS operand) once per vertex. The
// caller refreshes it from the active VAT before each batch (spec §12:
// "refreshed once per draw call", spec §4.5 batch driver).
type ScaleTable struct {
	slots [numScaleSlots]float32
}

// NewScaleTable returns a table with every slot defaulted to 1.0 (no-op
// scale) so a Loader generated against an attribute with no runtime scale
// slot never reads an uninitialized multiplier.
func NewScaleTable() *ScaleTable {
	t := &ScaleTable{}
	for i := range t.slots {
		t.slots[i] = 1
	}
	return t
}

// Refresh recomputes the position and texcoord scale slots from the VAT's
// fractional exponents. Normal's scale is resolved at generation time
// (normalScale below), not here, because the fixed exponents it uses never
// vary at runtime.
func (t *ScaleTable) Refresh(vat *VAT) {
	t.slots[scaleSlotPosition] = scaleFor(vat.Position.Frac)
	for i := 0; i < 8; i++ {
		t.slots[scaleSlotTexCoord0+i] = scaleFor(vat.TexCoord[i].Frac)
	}
}

// slotAddr returns the absolute address of scale slot idx, for the
// generator to capture as an immediate operand.
func (t *ScaleTable) slotAddr(idx int) uintptr {
	return uintptr(unsafe.Pointer(&t.slots[idx]))
}

// normalScale returns the fixed dequantization exponent GX applies to a
// normal of the given format: the hardware never reads a runtime register
// for this, it is wired to a constant per format and per NormalIndex3 mode
// (spec §9, "Normal scale is format-fixed, not table-driven"). U8/S8 use a
// 7-bit fraction normally and 15 under NormalIndex3 (three separately
// indexed 8-bit arrays read at double precision); U16/S16 use 6 and 14
// respectively.
func normalScale(format NumericFormat, index3 bool) int {
	switch format {
	case FormatU8, FormatS8:
		if index3 {
			return 15
		}
		return 7
	case FormatU16, FormatS16:
		if index3 {
			return 14
		}
		return 6
	default:
		panic("BUG: normals never use a float or other non-integer format")
	}
}
