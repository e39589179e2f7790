package gx

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/gxjit/vtxloader/internal/platform"
)

// cacheKey is the hashable identity of one specialized routine: the
// descriptor and VAT together determine the entire generated instruction
// stream (spec §2, "one routine per unique descriptor+format pair").
type cacheKey struct {
	desc VtxDesc
	vat  VAT
}

// Cache generates and memoizes one Loader per unique (VtxDesc, VAT) pair,
// so a repeated draw call with the same vertex format never re-runs the
// generator (spec §2).
type Cache struct {
	mu      sync.Mutex
	loaders map[cacheKey]*Loader
	cpu     platform.CpuFeatureFlags
	log     *log.Logger
}

// CacheOption configures a Cache at construction time.
type CacheOption func(*Cache)

// WithLogger routes generation-event tracing (cache misses, generation
// failures) to logger instead of the default io.Discard sink. Nothing on
// the decode hot path ever logs.
func WithLogger(logger *log.Logger) CacheOption {
	return func(c *Cache) { c.log = logger }
}

// WithCpuFeatures overrides the auto-detected CPU feature set, primarily
// for tests that need to force the non-BMI2 fallback path on hardware that
// does have BMI2.
func WithCpuFeatures(cpu platform.CpuFeatureFlags) CacheOption {
	return func(c *Cache) { c.cpu = cpu }
}

// NewCache returns a Cache ready to serve Get calls, detecting CPU features
// once up front unless overridden by WithCpuFeatures.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		loaders: make(map[cacheKey]*Loader),
		cpu:     platform.CpuFeatures,
		log:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the Loader for (desc, vat), generating and caching it on
// first use.
func (c *Cache) Get(desc VtxDesc, vat VAT, state *CPState, scale *ScaleTable) (*Loader, error) {
	key := cacheKey{desc: desc, vat: vat}

	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.loaders[key]; ok {
		return l, nil
	}

	l, err := NewLoader(desc, vat, c.cpu, state, scale)
	if err != nil {
		c.log.Printf("gx: decoder generation failed for descriptor=%+v: %v", desc, err)
		return nil, fmt.Errorf("cache get: %w", err)
	}
	c.log.Printf("gx: generated decoder for descriptor=%+v", desc)
	c.loaders[key] = l
	return l, nil
}

// Release unmaps every cached routine's executable memory. The Cache must
// not be used again afterward.
func (c *Cache) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for key, l := range c.loaders {
		if err := l.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.loaders, key)
	}
	return firstErr
}
