package bipartite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/rng"
)

func TestRaptorGraphParityConsistency(t *testing.T) {
	f := gf.Shared()
	r, _ := rng.NewRand(42)
	const snum, cnum, sizeP = 40, 8, 16

	g := NewRaptorGraph(snum, cnum, false, r)
	pp := make([][]byte, snum+cnum)
	for i := 0; i < snum; i++ {
		pp[i] = make([]byte, sizeP)
		for j := range pp[i] {
			pp[i][j] = byte((i*7 + j*3) % 256)
		}
	}
	for i := 0; i < cnum; i++ {
		pp[snum+i] = make([]byte, sizeP)
	}

	g.ApplyParity(pp, sizeP, f)
	require.True(t, g.VerifyParity(pp, sizeP, f))

	// Every check row must have at least one edge for a non-degenerate code.
	for i := 0; i < cnum; i++ {
		require.NotEmpty(t, g.LeftOfRight[i])
	}
}

func TestDenseGraphBinaryCoefficientsAreOne(t *testing.T) {
	r, _ := rng.NewRand(7)
	g := NewDenseGraph(20, 4, true, r)
	for _, edges := range g.LeftOfRight {
		for _, e := range edges {
			require.Equal(t, byte(1), e.Coeff)
		}
	}
}
