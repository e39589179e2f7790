package gx

import "testing"

func TestNumericFormatElementSize(t *testing.T) {
	cases := []struct {
		f    NumericFormat
		want int
	}{
		{FormatU8, 1}, {FormatS8, 1},
		{FormatU16, 2}, {FormatS16, 2},
		{FormatF32, 4},
	}
	for _, c := range cases {
		if got := c.f.elementSize(); got != c.want {
			t.Errorf("%v.elementSize() = %d, want %d", c.f, got, c.want)
		}
	}
}

func TestNumericFormatSignedAndFloat(t *testing.T) {
	if FormatU8.signed() || FormatU16.signed() {
		t.Error("unsigned formats reported as signed")
	}
	if !FormatS8.signed() || !FormatS16.signed() {
		t.Error("signed formats not reported as signed")
	}
	if !FormatF32.isFloat() {
		t.Error("FormatF32 not reported as float")
	}
	if FormatU8.isFloat() || FormatS16.isFloat() {
		t.Error("integer format reported as float")
	}
}

func TestColorFormatSourceBytes(t *testing.T) {
	cases := []struct {
		f    ColorFormat
		want int
	}{
		{Color16B565, 2}, {Color16B4444, 2},
		{Color24B888, 3}, {Color24B6666, 3},
		{Color32B888x, 4}, {Color32B8888, 4},
	}
	for _, c := range cases {
		if got := c.f.sourceBytes(); got != c.want {
			t.Errorf("%v.sourceBytes() = %d, want %d", c.f, got, c.want)
		}
	}
}

func TestCanonicalArrayIndices(t *testing.T) {
	// Canonical order drives both VtxDesc emission order and the array
	// index a given attribute resolves its base/stride from.
	indices := []int{arrayPosMatIdx, arrayPosition, arrayNormal, arrayColor0, arrayColor1, arrayTexCoord0, arrayTexMatIdx0}
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			t.Errorf("array indices not strictly increasing at %d: %v", i, indices)
		}
	}
	for i := 0; i < 8; i++ {
		if arrayTexCoord0+i >= arrayTexMatIdx0 {
			t.Errorf("texcoord array index %d collides with texture-matrix-index range", arrayTexCoord0+i)
		}
	}
}
