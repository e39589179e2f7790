package gx

import "unsafe"

func addrOfMaskArray(m *[16]byte) uintptr { return uintptr(unsafe.Pointer(m)) }

func addrOfFloat32(f *float32) uintptr { return uintptr(unsafe.Pointer(f)) }
