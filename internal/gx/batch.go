package gx

import "fmt"

// Batch drives repeated decode calls against one live CPState/ScaleTable
// pair across a sequence of draw calls, refreshing the scale table from the
// active VAT on every Decode call (spec §4.5); array bases/strides are
// installed separately through SetArray (spec §12: "cached_arraybases/
// array_strides refreshed once per draw call").
type Batch struct {
	cache *Cache
	state *CPState
	scale *ScaleTable

	decoded uint64
	skipped uint64
}

// NewBatch returns a driver bound to a fresh CPState/ScaleTable pair.
func NewBatch(cache *Cache) *Batch {
	return &Batch{cache: cache, state: NewCPState(), scale: NewScaleTable()}
}

// SetArray installs one attribute array's base address and stride for the
// upcoming draw calls.
func (b *Batch) SetArray(array int, base uintptr, stride uint32) {
	b.state.SetArray(array, base, stride)
}

// SetMatrixIndexA sets the position-matrix fallback register for vertices
// whose descriptor omits PosMatIdx.
func (b *Batch) SetMatrixIndexA(v uint32) {
	b.state.SetMatrixIndexA(v)
}

// Decode refreshes the scale table from vat, resolves (or generates) the
// Loader for (desc, vat), and decodes count vertices from src into dst,
// accumulating running decoded/skipped vertex counters for telemetry.
func (b *Batch) Decode(desc VtxDesc, vat VAT, src, dst uintptr, count uint32) (uint32, error) {
	b.scale.Refresh(&vat)

	loader, err := b.cache.Get(desc, vat, b.state, b.scale)
	if err != nil {
		return 0, fmt.Errorf("batch decode: %w", err)
	}

	skipped := loader.Decode(src, dst, count)
	b.decoded += uint64(count)
	b.skipped += uint64(skipped)
	return skipped, nil
}

// Stats returns the running totals of vertices decoded and skipped across
// every Decode call made through this Batch.
func (b *Batch) Stats() (decoded, skipped uint64) {
	return b.decoded, b.skipped
}
