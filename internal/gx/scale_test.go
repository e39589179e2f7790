package gx

import "testing"

func TestNewScaleTableDefaultsToOne(t *testing.T) {
	st := NewScaleTable()
	for i, v := range st.slots {
		if v != 1 {
			t.Errorf("slot %d = %v, want 1", i, v)
		}
	}
}

func TestScaleTableRefresh(t *testing.T) {
	vat := VAT{
		Position: NumericAttr{Frac: 8},
	}
	vat.TexCoord[0] = NumericAttr{Frac: 4}
	vat.TexCoord[7] = NumericAttr{Frac: 0}

	st := NewScaleTable()
	st.Refresh(&vat)

	if got := st.slots[scaleSlotPosition]; got != scaleFor(8) {
		t.Errorf("position slot = %v, want %v", got, scaleFor(8))
	}
	if got := st.slots[scaleSlotTexCoord0+0]; got != scaleFor(4) {
		t.Errorf("texcoord0 slot = %v, want %v", got, scaleFor(4))
	}
	if got := st.slots[scaleSlotTexCoord0+7]; got != scaleFor(0) {
		t.Errorf("texcoord7 slot = %v, want %v", got, scaleFor(0))
	}
}

func TestScaleTableSlotAddrStable(t *testing.T) {
	st := NewScaleTable()
	a1 := st.slotAddr(scaleSlotPosition)
	st.Refresh(&VAT{Position: NumericAttr{Frac: 3}})
	a2 := st.slotAddr(scaleSlotPosition)
	if a1 != a2 {
		t.Errorf("slotAddr changed across Refresh: %x != %x", a1, a2)
	}
	if st.slots[scaleSlotPosition] != scaleFor(3) {
		t.Errorf("refresh through the stable address did not take effect")
	}
}

func TestNormalScale(t *testing.T) {
	cases := []struct {
		format  NumericFormat
		index3  bool
		want    int
	}{
		{FormatU8, false, 7},
		{FormatS8, true, 15},
		{FormatU16, false, 6},
		{FormatS16, true, 14},
	}
	for _, c := range cases {
		if got := normalScale(c.format, c.index3); got != c.want {
			t.Errorf("normalScale(%v, %v) = %d, want %d", c.format, c.index3, got, c.want)
		}
	}
}

func TestNormalScalePanicsOnFloat(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("normalScale(FormatF32, false) did not panic")
		}
	}()
	normalScale(FormatF32, false)
}
