package cpu

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Features describes the host CPU. It is informational: kernels produce
// identical results whatever the host supports.
type Features struct {
	Brand         string
	Vendor        string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	FMA3          bool
	AVX512        bool
	NEON          bool
}

// DetectFeatures queries cpuid once.
func DetectFeatures() Features {
	return Features{
		Brand:         cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  runtime.NumCPU(),
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		FMA3:          cpuid.CPU.Supports(cpuid.FMA3),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		NEON:          cpuid.CPU.Supports(cpuid.ASIMD),
	}
}

// String renders a one-line banner, e.g. "Intel Xeon (8 cores, avx2 fma3)".
func (f Features) String() string {
	brand := f.Brand
	if brand == "" {
		brand = "unknown CPU"
	}
	flags := ""
	for _, fl := range []struct {
		on   bool
		name string
	}{{f.AVX2, "avx2"}, {f.FMA3, "fma3"}, {f.AVX512, "avx512"}, {f.NEON, "neon"}} {
		if !fl.on {
			continue
		}
		if flags != "" {
			flags += " "
		}
		flags += fl.name
	}
	if flags == "" {
		flags = "generic"
	}
	return fmt.Sprintf("%s (%d cores, %s)", brand, f.LogicalCores, flags)
}
