package gf

import (
	"github.com/klauspost/cpuid/v2"
	"github.com/templexxx/xor"
)

// simdCapable records whether the running CPU has the SIMD features the
// original library gated region operations behind with
// "#if defined(INTEL_SSSE3)". We cannot shuffle-multiply in portable Go, but
// we do use the CPU-feature probe to decide whether the pure-XOR c=1
// shortcut is worth routing through templexxx/xor's accelerated path versus
// a plain scalar loop on tiny regions.
var simdCapable = cpuid.CPU.Supports(cpuid.SSSE3) || cpuid.CPU.Supports(cpuid.AVX2)

// minSIMDRegion is the smallest byte count for which dispatching to
// templexxx/xor's assembly beats the fixed call overhead.
const minSIMDRegion = 32

// RegionMultiplyAdd computes dst[i] ^= c*src[i] for i in [0,n). It shortcuts
// c=0 (no-op) and c=1 (pure XOR). Only the c=1 path on a SIMD-capable CPU
// with n >= minSIMDRegion goes through templexxx/xor (for the whole region);
// every other case, including all general multipliers, is a scalar loop.
func (f *Field) RegionMultiplyAdd(dst, src []uint8, c uint8, n int) {
	if c == 0 {
		return
	}
	if c == 1 {
		f.regionXOR(dst, src, n)
		return
	}
	row := f.mulTable[int(c)*fieldOrder : int(c)*fieldOrder+fieldOrder]
	for i := 0; i < n; i++ {
		dst[i] ^= row[src[i]]
	}
}

func (f *Field) regionXOR(dst, src []uint8, n int) {
	if simdCapable && n >= minSIMDRegion {
		xor.Bytes(dst[:n], dst[:n], src[:n])
		return
	}
	for i := 0; i < n; i++ {
		dst[i] ^= src[i]
	}
}

// RegionMultiply scales src[i] *= c in place for i in [0,n).
func (f *Field) RegionMultiply(src []uint8, c uint8, n int) {
	if c == 1 {
		return
	}
	if c == 0 {
		for i := 0; i < n; i++ {
			src[i] = 0
		}
		return
	}
	row := f.mulTable[int(c)*fieldOrder : int(c)*fieldOrder+fieldOrder]
	for i := 0; i < n; i++ {
		src[i] = row[src[i]]
	}
}
