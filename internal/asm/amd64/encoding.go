package asm_amd64

import "github.com/gxjit/vtxloader/internal/asm"

// rex builds a REX prefix byte. w selects 64-bit operand size; reg, index,
// base extend the ModRM.reg, SIB.index and ModRM.rm/SIB.base fields
// respectively (asm.NilRegister for "not present").
func rex(w bool, reg, index, base asm.Register) byte {
	var r, x, b byte
	if isExtended(reg) {
		r = 1
	}
	if isExtended(index) {
		x = 1
	}
	if isExtended(base) {
		b = 1
	}
	var wb byte
	if w {
		wb = 1
	}
	return 0x40 | wb<<3 | r<<2 | x<<1 | b
}

// needsRex reports whether a REX prefix must be emitted at all.
func needsRex(w bool, reg, index, base asm.Register) bool {
	return w || isExtended(reg) || isExtended(index) || isExtended(base)
}

func (a *Assembler) emitRex(w bool, reg, index, base asm.Register) {
	if needsRex(w, reg, index, base) {
		a.seg.WriteByte(rex(w, reg, index, base))
	}
}

func scaleBits(scale byte) byte {
	switch scale {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		panic("BUG: invalid SIB scale, must be 1, 2, 4 or 8")
	}
}

// modRMReg encodes a register-register ModRM byte: mod=11, reg field `reg`,
// rm field `rm`.
func modRMReg(reg, rm byte) byte {
	return 0xC0 | (reg&7)<<3 | (rm & 7)
}

// appendMem appends the ModRM(+disp) bytes for the memory operand
// [base+disp], no index, with the opcode/destination bits `reg` in
// ModRM.reg.
func (a *Assembler) appendMem(reg byte, base asm.Register, disp int32) {
	baseNum := regNum(base)
	needSIB := baseNum == 4 // SP/R12 must go through a SIB byte.
	var mod byte
	switch {
	case disp == 0 && baseNum != 5:
		mod = 0
	case disp >= -128 && disp <= 127:
		mod = 1
	default:
		mod = 2
	}
	modrm := mod<<6 | (reg&7)<<3
	if needSIB {
		a.seg.WriteByte(modrm | 4)
		a.seg.WriteByte(0x24) // scale=0, index=none(100), base=SP/R12(100)
	} else {
		a.seg.WriteByte(modrm | baseNum)
	}
	switch mod {
	case 1:
		a.seg.WriteByte(byte(int8(disp)))
	case 2:
		a.seg.WriteUint32LE(uint32(disp))
	case 0:
		if baseNum == 5 {
			a.seg.WriteUint32LE(uint32(disp))
		}
	}
}

// appendMemIndexed appends the ModRM+SIB(+disp) bytes for the memory
// operand [base + index*scale + disp].
func (a *Assembler) appendMemIndexed(reg byte, base, index asm.Register, scale byte, disp int32) {
	baseNum := regNum(base)
	var mod byte
	switch {
	case disp == 0 && baseNum != 5:
		mod = 0
	case disp >= -128 && disp <= 127:
		mod = 1
	default:
		mod = 2
	}
	a.seg.WriteByte(mod<<6 | (reg&7)<<3 | 4)
	a.seg.WriteByte(scaleBits(scale)<<6 | regNum(index)<<3 | baseNum)
	switch mod {
	case 1:
		a.seg.WriteByte(byte(int8(disp)))
	case 2:
		a.seg.WriteUint32LE(uint32(disp))
	case 0:
		if baseNum == 5 {
			a.seg.WriteUint32LE(uint32(disp))
		}
	}
}
