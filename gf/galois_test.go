package gf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldIdentities(t *testing.T) {
	f := Shared()
	for a := 1; a < fieldOrder; a++ {
		assert.Equal(t, uint8(a), f.Mul(uint8(a), 1))
		assert.Equal(t, uint8(0), f.Mul(uint8(a), 0))
		assert.Equal(t, uint8(a), f.Div(uint8(a), 1))
	}
}

func TestMulDivInverse(t *testing.T) {
	f := Shared()
	for a := 1; a < fieldOrder; a++ {
		for b := 1; b < fieldOrder; b++ {
			p := f.Mul(uint8(a), uint8(b))
			assert.Equal(t, uint8(a), f.Div(p, uint8(b)))
		}
	}
}

func TestDivByZeroPanics(t *testing.T) {
	f := Shared()
	require.Panics(t, func() { f.Div(5, 0) })
}

func TestRegionMultiplyAddShortcuts(t *testing.T) {
	f := Shared()
	dst := []byte{1, 2, 3, 4}
	f.RegionMultiplyAdd(dst, []byte{9, 9, 9, 9}, 0, 4)
	assert.Equal(t, []byte{1, 2, 3, 4}, dst)

	f.RegionMultiplyAdd(dst, []byte{1, 1, 1, 1}, 1, 4)
	assert.Equal(t, []byte{0, 3, 2, 5}, dst)
}

func TestRegionMultiplyAddGeneral(t *testing.T) {
	f := Shared()
	src := make([]byte, 64)
	for i := range src {
		src[i] = byte(i * 7)
	}
	dst := make([]byte, 64)
	want := make([]byte, 64)
	c := uint8(37)
	for i := range src {
		want[i] = dst[i] ^ f.Mul(src[i], c)
	}
	f.RegionMultiplyAdd(dst, src, c, len(src))
	assert.Equal(t, want, dst)
}

func TestRegionMultiply(t *testing.T) {
	f := Shared()
	src := []byte{1, 2, 3, 4, 5}
	want := make([]byte, len(src))
	for i, v := range src {
		want[i] = f.Mul(v, 200)
	}
	f.RegionMultiply(src, 200, len(src))
	assert.Equal(t, want, src)
}

func TestPackedBits(t *testing.T) {
	buf := make([]byte, PackedLen(10))
	SetBit(buf, 3, 1)
	SetBit(buf, 9, 1)
	assert.Equal(t, uint8(1), GetBit(buf, 3))
	assert.Equal(t, uint8(1), GetBit(buf, 9))
	assert.Equal(t, uint8(0), GetBit(buf, 4))
}
