package gx

import "testing"

func simpleDesc() VtxDesc {
	return VtxDesc{Position: PresenceDirect}
}

func simpleVAT() VAT {
	return VAT{Position: NumericAttr{Elements: 1, Format: FormatF32, Frac: 0}}
}

func TestCacheGetMemoizes(t *testing.T) {
	c := NewCache()
	defer c.Release()

	state := NewCPState()
	scale := NewScaleTable()
	desc, vat := simpleDesc(), simpleVAT()

	l1, err := c.Get(desc, vat, state, scale)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	l2, err := c.Get(desc, vat, state, scale)
	if err != nil {
		t.Fatalf("Get (second call): %v", err)
	}
	if l1 != l2 {
		t.Error("Cache.Get generated a second Loader for an identical (desc, vat) pair")
	}
}

func TestCacheGetDistinguishesDescriptors(t *testing.T) {
	c := NewCache()
	defer c.Release()

	state := NewCPState()
	scale := NewScaleTable()
	vat := simpleVAT()

	withPosition := VtxDesc{Position: PresenceDirect}
	withPositionAndColor := VtxDesc{Position: PresenceDirect, Color: [2]Presence{PresenceDirect, PresenceNone}}
	vat.Color[0] = Color32B8888

	l1, err := c.Get(withPosition, vat, state, scale)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	l2, err := c.Get(withPositionAndColor, vat, state, scale)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if l1 == l2 {
		t.Error("Cache.Get returned the same Loader for different descriptors")
	}
}

func TestGeneratedLayoutForPositionOnly(t *testing.T) {
	c := NewCache()
	defer c.Release()

	l, err := c.Get(simpleDesc(), simpleVAT(), NewCPState(), NewScaleTable())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	format := l.VertexFormat()
	if !format.Position.Enable {
		t.Fatal("Position declaration not enabled")
	}
	if format.Position.Offset != 0 {
		t.Errorf("Position offset = %d, want 0", format.Position.Offset)
	}
	if format.Position.Components != 3 {
		t.Errorf("Position components = %d, want 3 (Elements=1)", format.Position.Components)
	}
	if l.VertexSize() != 12 {
		t.Errorf("VertexSize = %d, want 12 (3 x float32 source)", l.VertexSize())
	}
	if l.NativeStride() != 16 {
		t.Errorf("NativeStride = %d, want 16 (3 x float32 position + position-matrix-index word)", l.NativeStride())
	}
	if !format.PosMatIdxDst.Enable {
		t.Fatal("PosMatIdxDst declaration not enabled")
	}
	if format.PosMatIdxDst.Offset != 12 {
		t.Errorf("PosMatIdxDst offset = %d, want 12", format.PosMatIdxDst.Offset)
	}
}

func TestCacheReleaseClearsLoaders(t *testing.T) {
	c := NewCache()
	if _, err := c.Get(simpleDesc(), simpleVAT(), NewCPState(), NewScaleTable()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := c.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(c.loaders) != 0 {
		t.Error("Release did not clear the loader map")
	}
}
