// Package vtxloader is a specializing JIT vertex-decoder for a fixed-
// function graphics pipeline modeled on the GameCube/Wii GX vertex engine:
// given a vertex descriptor and a vertex-attribute table, it generates a
// native x86-64 routine that decodes a packed big-endian vertex buffer into
// a dequantized, little-endian native layout, once per unique descriptor.
package vtxloader

import (
	"github.com/gxjit/vtxloader/internal/gx"
)

// Presence identifies how an attribute's bytes appear in a source vertex.
type Presence = gx.Presence

const (
	PresenceNone    = gx.PresenceNone
	PresenceDirect  = gx.PresenceDirect
	PresenceIndex8  = gx.PresenceIndex8
	PresenceIndex16 = gx.PresenceIndex16
)

// NumericFormat is the element encoding for position/normal/texcoord.
type NumericFormat = gx.NumericFormat

const (
	FormatU8  = gx.FormatU8
	FormatS8  = gx.FormatS8
	FormatU16 = gx.FormatU16
	FormatS16 = gx.FormatS16
	FormatF32 = gx.FormatF32
)

// ColorFormat is the on-disk packing of a colour attribute.
type ColorFormat = gx.ColorFormat

const (
	Color16B565  = gx.Color16B565
	Color24B888  = gx.Color24B888
	Color32B888x = gx.Color32B888x
	Color16B4444 = gx.Color16B4444
	Color24B6666 = gx.Color24B6666
	Color32B8888 = gx.Color32B8888
)

// VtxDesc is the dense per-attribute presence record (spec §2).
type VtxDesc = gx.VtxDesc

// NumericAttr is one VAT numeric-attribute entry.
type NumericAttr = gx.NumericAttr

// VAT is the vertex-attribute table.
type VAT = gx.VAT

// VertexFormat is the native layout a Loader decodes into.
type VertexFormat = gx.VertexFormat

// Declaration is one attribute's entry in a VertexFormat.
type Declaration = gx.Declaration

// Cache generates and memoizes one decoder per unique (VtxDesc, VAT) pair.
type Cache = gx.Cache

// CacheOption configures a Cache at construction time.
type CacheOption = gx.CacheOption

// WithLogger routes generation-event tracing to logger.
var WithLogger = gx.WithLogger

// WithCpuFeatures overrides auto-detected CPU features.
var WithCpuFeatures = gx.WithCpuFeatures

// NewCache returns a ready-to-use decoder cache.
var NewCache = gx.NewCache

// Batch drives repeated decode calls against one live array/scale binding
// across a sequence of draw calls (spec §4.5).
type Batch = gx.Batch

// NewBatch returns a driver bound to a fresh per-draw-call array/scale
// binding, backed by cache.
var NewBatch = gx.NewBatch
