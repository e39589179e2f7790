package gx

import "testing"

func TestScaleFor(t *testing.T) {
	cases := []struct {
		frac int
		want float32
	}{
		{0, 1.0},
		{1, 0.5},
		{8, 1.0 / 256.0},
		{15, 1.0 / 32768.0},
	}
	for _, c := range cases {
		if got := scaleFor(c.frac); got != c.want {
			t.Errorf("scaleFor(%d) = %v, want %v", c.frac, got, c.want)
		}
	}
}

func TestScaleForPanicsOutOfRange(t *testing.T) {
	for _, frac := range []int{-1, 32} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("scaleFor(%d) did not panic", frac)
				}
			}()
			scaleFor(frac)
		}()
	}
}

func TestIntShuffleMaskOneByteLanes(t *testing.T) {
	m := intShuffleMask(1, 3)
	want := [16]byte{
		0xFF, 0xFF, 0xFF, 0x00,
		0xFF, 0xFF, 0xFF, 0x01,
		0xFF, 0xFF, 0xFF, 0x02,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	if m != want {
		t.Errorf("intShuffleMask(1, 3) = %v, want %v", m, want)
	}
}

func TestIntShuffleMaskTwoByteLanes(t *testing.T) {
	m := intShuffleMask(2, 2)
	want := [16]byte{
		0xFF, 0xFF, 0x01, 0x00,
		0xFF, 0xFF, 0x03, 0x02,
		0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	if m != want {
		t.Errorf("intShuffleMask(2, 2) = %v, want %v", m, want)
	}
}

func TestFloatShuffleMaskReversesBytesPerLane(t *testing.T) {
	m := floatShuffleMask(2)
	want := [16]byte{
		3, 2, 1, 0,
		7, 6, 5, 4,
		0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	if m != want {
		t.Errorf("floatShuffleMask(2) = %v, want %v", m, want)
	}
}

func TestShiftAmountFor(t *testing.T) {
	if got := shiftAmountFor(1); got != 24 {
		t.Errorf("shiftAmountFor(1) = %d, want 24", got)
	}
	if got := shiftAmountFor(2); got != 16 {
		t.Errorf("shiftAmountFor(2) = %d, want 16", got)
	}
}

func TestExpandColor565(t *testing.T) {
	r, g, b, a := expandColor565(0xFFFF)
	if r != 0xFF || g != 0xFF || b != 0xFF || a != 0xFF {
		t.Errorf("expandColor565(0xFFFF) = %02x %02x %02x %02x, want ff ff ff ff", r, g, b, a)
	}
	r, g, b, a = expandColor565(0x0000)
	if r != 0 || g != 0 || b != 0 || a != 0xFF {
		t.Errorf("expandColor565(0x0000) = %02x %02x %02x %02x, want 00 00 00 ff", r, g, b, a)
	}
	// R=0b10000 -> top bit set, replicated into the low 3 bits of the byte.
	r, _, _, _ = expandColor565(0x8000)
	if r != 0x84 {
		t.Errorf("expandColor565 red channel = %02x, want 84", r)
	}
}

func TestExpandColor4444(t *testing.T) {
	r, g, b, a := expandColor4444(0xF000)
	if r != 0xFF || g != 0 || b != 0 || a != 0 {
		t.Errorf("expandColor4444(0xF000) = %02x %02x %02x %02x, want ff 00 00 00", r, g, b, a)
	}
	r, g, b, a = expandColor4444(0x1234)
	if r != 0x11 || g != 0x22 || b != 0x33 || a != 0x44 {
		t.Errorf("expandColor4444(0x1234) = %02x %02x %02x %02x, want 11 22 33 44", r, g, b, a)
	}
}

func TestExpandColor888x(t *testing.T) {
	r, g, b, a := expandColor888x(0x10, 0x20, 0x30, 0x99)
	if r != 0x10 || g != 0x20 || b != 0x30 || a != 0xFF {
		t.Errorf("expandColor888x = %02x %02x %02x %02x, want 10 20 30 ff", r, g, b, a)
	}
}

func TestExpandColor6666(t *testing.T) {
	// All six-bit fields maxed: 0x3F repeated across the packed 24 bits.
	r, g, b, a := expandColor6666(0xFF, 0xFF, 0xFF)
	if r != 0xFF || g != 0xFF || b != 0xFF || a != 0xFF {
		t.Errorf("expandColor6666(max) = %02x %02x %02x %02x, want ff ff ff ff", r, g, b, a)
	}
	r, g, b, a = expandColor6666(0x00, 0x00, 0x00)
	if r != 0 || g != 0 || b != 0 || a != 0 {
		t.Errorf("expandColor6666(0) = %02x %02x %02x %02x, want 0 0 0 0", r, g, b, a)
	}
}

func TestExpandColor8888Passthrough(t *testing.T) {
	r, g, b, a := expandColor8888(1, 2, 3, 4)
	if r != 1 || g != 2 || b != 3 || a != 4 {
		t.Errorf("expandColor8888 did not pass channels through unchanged")
	}
}
