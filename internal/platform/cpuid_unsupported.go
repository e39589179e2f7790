//go:build !amd64 || !gc || purego

package platform

// cpuFeatureFlags implements CpuFeatureFlags for hosts the generator cannot
// target: no feature is ever reported present, so decoder generation always
// returns an error (spec §7) and callers fall back to a different decoder.
type cpuFeatureFlags struct{}

func (cpuFeatureFlags) Has(CpuFeature) bool      { return false }
func (cpuFeatureFlags) HasExtra(CpuFeature) bool { return false }

func loadCpuFeatureFlags() CpuFeatureFlags { return cpuFeatureFlags{} }
