package gx

import (
	"testing"

	"github.com/gxjit/vtxloader/internal/platform"
)

// TestGeneratePosMatIdxPresent covers end-to-end scenario 5: a descriptor
// carrying its own PosMatIdx byte produces an unconditional, masked
// destination word after every other attribute.
func TestGeneratePosMatIdxPresent(t *testing.T) {
	desc := VtxDesc{PosMatIdx: true, Position: PresenceDirect}
	vat := simpleVAT()

	_, format, _, err := Generate(desc, vat, platform.CpuFeatures, NewCPState(), NewScaleTable())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !format.PosMatIdxDst.Enable {
		t.Fatal("PosMatIdxDst declaration not enabled")
	}
	if format.PosMatIdxDst.Components != 1 {
		t.Errorf("PosMatIdxDst components = %d, want 1", format.PosMatIdxDst.Components)
	}
	if format.PosMatIdxDst.Type != DeclUByte {
		t.Errorf("PosMatIdxDst type = %v, want DeclUByte", format.PosMatIdxDst.Type)
	}
	// Position (3 x float32 = 12 bytes) comes first, then the word.
	if format.PosMatIdxDst.Offset != 12 {
		t.Errorf("PosMatIdxDst offset = %d, want 12", format.PosMatIdxDst.Offset)
	}
	if format.NativeStride != 16 {
		t.Errorf("NativeStride = %d, want 16", format.NativeStride)
	}
	// The PosMatIdx byte occupies one extra source byte ahead of position.
	if format.VertexSize != 13 {
		t.Errorf("VertexSize = %d, want 13 (1 posmatidx byte + 12 position bytes)", format.VertexSize)
	}
}

// TestGeneratePosMatIdxFallback covers the other half of scenario 5: when
// PosMatIdx is absent, the word is still written unconditionally, sourced
// from the live matrix_index_a global instead of an inline byte.
func TestGeneratePosMatIdxFallback(t *testing.T) {
	desc := simpleDesc() // PosMatIdx: false, Position: PresenceDirect
	vat := simpleVAT()

	_, format, _, err := Generate(desc, vat, platform.CpuFeatures, NewCPState(), NewScaleTable())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !format.PosMatIdxDst.Enable {
		t.Fatal("PosMatIdxDst declaration not enabled")
	}
	if format.PosMatIdxDst.Offset != 12 {
		t.Errorf("PosMatIdxDst offset = %d, want 12", format.PosMatIdxDst.Offset)
	}
	if format.NativeStride != 16 {
		t.Errorf("NativeStride = %d, want 16 (no PosMatIdx byte does not shrink the destination word)", format.NativeStride)
	}
	// No inline byte consumed from the source vertex this time.
	if format.VertexSize != 12 {
		t.Errorf("VertexSize = %d, want 12", format.VertexSize)
	}
}

// TestGenerateTexCoordMatIdxFusion covers end-to-end scenario 4: a DIRECT
// texcoord with its TexMatIdx flag set reads two lanes (u,v) and fuses the
// float-converted matrix-index byte as a third lane, yielding a single
// {components=3,type=f32} declaration.
func TestGenerateTexCoordMatIdxFusion(t *testing.T) {
	desc := VtxDesc{TexCoord: [8]Presence{PresenceDirect}, TexMatIdx: [8]bool{true}}
	vat := VAT{TexCoord: [8]NumericAttr{{Elements: 1, Format: FormatF32}}}

	_, format, _, err := Generate(desc, vat, platform.CpuFeatures, NewCPState(), NewScaleTable())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tc := format.TexCoord[0]
	if !tc.Enable {
		t.Fatal("TexCoord[0] declaration not enabled")
	}
	if tc.Components != 3 {
		t.Errorf("TexCoord[0] components = %d, want 3 (u,v,matidx fused)", tc.Components)
	}
	if tc.Type != DeclFloat32 {
		t.Errorf("TexCoord[0] type = %v, want DeclFloat32", tc.Type)
	}
	if tc.Offset != 0 {
		t.Errorf("TexCoord[0] offset = %d, want 0", tc.Offset)
	}
	// u,v (8 bytes source) + matidx byte (1 byte source, read via its
	// recorded offset, not consumed from the texcoord's own stream).
	if format.VertexSize != 9 {
		t.Errorf("VertexSize = %d, want 9 (1 matidx byte + 2 x f32 uv)", format.VertexSize)
	}
	// dest: 3 x float32 fused lane + unconditional posmatidx word.
	if format.NativeStride != 16 {
		t.Errorf("NativeStride = %d, want 16 (3 x f32 texcoord + posmatidx word)", format.NativeStride)
	}
	if format.PosMatIdxDst.Offset != 12 {
		t.Errorf("PosMatIdxDst offset = %d, want 12", format.PosMatIdxDst.Offset)
	}
}

// TestGenerateTexCoordMatIdxFusionSingleElement covers fusion onto a
// single-component (S-only, Elements=0) texcoord: the fused matrix-index
// lane must land right after the one coordinate actually read, without
// forcing an extra (nonexistent) T component to be read from the source.
func TestGenerateTexCoordMatIdxFusionSingleElement(t *testing.T) {
	desc := VtxDesc{TexCoord: [8]Presence{PresenceDirect}, TexMatIdx: [8]bool{true}}
	vat := VAT{TexCoord: [8]NumericAttr{{Elements: 0, Format: FormatF32}}}

	_, format, _, err := Generate(desc, vat, platform.CpuFeatures, NewCPState(), NewScaleTable())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tc := format.TexCoord[0]
	if !tc.Enable {
		t.Fatal("TexCoord[0] declaration not enabled")
	}
	if tc.Components != 2 {
		t.Errorf("TexCoord[0] components = %d, want 2 (S + matidx fused)", tc.Components)
	}
	// Only the matidx byte (1) + the single S float (4) are consumed from
	// the source; a T component was never stored and must not be read.
	if format.VertexSize != 5 {
		t.Errorf("VertexSize = %d, want 5 (1 matidx byte + 1 x f32 S)", format.VertexSize)
	}
	// dest: 2 x float32 fused lane + unconditional posmatidx word.
	if format.NativeStride != 12 {
		t.Errorf("NativeStride = %d, want 12 (2 x f32 texcoord + posmatidx word)", format.NativeStride)
	}
}

// TestGenerateTexCoordMatIdxSynthesized covers the texcoord-absent branch:
// a TexMatIdx flag set with no matching texcoord synthesizes a {0, idx, 0}
// triple rather than fusing a lane onto an existing read.
func TestGenerateTexCoordMatIdxSynthesized(t *testing.T) {
	desc := VtxDesc{TexMatIdx: [8]bool{true}}
	vat := VAT{}

	_, format, _, err := Generate(desc, vat, platform.CpuFeatures, NewCPState(), NewScaleTable())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tc := format.TexCoord[0]
	if !tc.Enable {
		t.Fatal("TexCoord[0] declaration not enabled")
	}
	if tc.Components != 3 {
		t.Errorf("TexCoord[0] components = %d, want 3 (synthesized {0,idx,0})", tc.Components)
	}
	if tc.Offset != 0 {
		t.Errorf("TexCoord[0] offset = %d, want 0", tc.Offset)
	}
	// Only the matidx byte itself is consumed from the source; no position
	// or other attribute present in this descriptor.
	if format.VertexSize != 1 {
		t.Errorf("VertexSize = %d, want 1 (matidx byte only)", format.VertexSize)
	}
	if format.NativeStride != 16 {
		t.Errorf("NativeStride = %d, want 16 (3 x f32 synthesized triple + posmatidx word)", format.NativeStride)
	}
}
