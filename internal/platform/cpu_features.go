package platform

// CpuFeature is a bit position in one of the two feature words returned by
// CPUID leaf 1 (flags, from ECX) and leaf 7 sub-leaf 0 (extraFlags, from
// EBX), restricted to the handful the generator cares about: byte-shuffle
// (SSSE3) gates whether the core is usable at all, BMI2 gates whether the
// colour reader can use PDEP instead of the shift/mask/or fallback.
type CpuFeature uint64

const (
	// CpuFeatureSSE3 is ECX bit 0 of CPUID.1. The generator does not
	// consult it; the colour reader's byte swap is a general-purpose BSWAP.
	CpuFeatureSSE3 CpuFeature = 1 << 0
	// CpuFeatureSSSE3 is ECX bit 9 of CPUID.1: PSHUFB, the gather-and-swap
	// primitive every numeric attribute reader is built on. A host lacking
	// this bit cannot run any generated routine.
	CpuFeatureSSSE3 CpuFeature = 1 << 9
	// CpuFeatureSSE4_1 is ECX bit 19 of CPUID.1.
	CpuFeatureSSE4_1 CpuFeature = 1 << 19
	// CpuFeatureSSE4_2 is ECX bit 20 of CPUID.1.
	CpuFeatureSSE4_2 CpuFeature = 1 << 20
)

const (
	// CpuExtraFeatureBMI1 is EBX bit 3 of CPUID.(EAX=7,ECX=0).
	CpuExtraFeatureBMI1 CpuFeature = 1 << 3
	// CpuExtraFeatureBMI2 is EBX bit 8 of CPUID.(EAX=7,ECX=0). Gates the
	// PDEP-based colour-expansion path (§4.3).
	CpuExtraFeatureBMI2 CpuFeature = 1 << 8
)

// CpuFeatureFlags exposes the capabilities of the host CPU relevant to code
// generation. The zero-value-safe "unsupported" implementation (built on
// non-amd64 hosts) reports every feature absent, which callers must treat as
// "construction must not proceed" per spec §7.
type CpuFeatureFlags interface {
	Has(feature CpuFeature) bool
	HasExtra(feature CpuFeature) bool
}

// CpuFeatures is queried once at process start and is the default feature
// set a decoder cache generates against (spec §7): on a host without
// CpuFeatureSSSE3 generation returns an error before any code memory is
// allocated, and BMI2 availability picks the colour reader's PDEP or
// fallback emission path.
var CpuFeatures CpuFeatureFlags = loadCpuFeatureFlags()
