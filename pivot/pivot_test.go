package pivot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/rng"
)

func randomFullRankSystem(t *testing.T, n, b int, seed int64) (*Matrix, *Matrix, *Matrix) {
	t.Helper()
	f := gf.Shared()
	r, _ := rng.NewRand(seed)
	for attempt := 0; attempt < 20; attempt++ {
		A := NewMatrix(n, n)
		for i := 0; i < n; i++ {
			row := A.Row(i)
			for j := 0; j < n; j++ {
				row[j] = r.Byte()
			}
		}
		x := NewMatrix(n, b)
		for i := 0; i < n; i++ {
			row := x.Row(i)
			for j := 0; j < b; j++ {
				row[j] = r.Byte()
			}
		}
		B := NewMatrix(n, b)
		for i := 0; i < n; i++ {
			for k := 0; k < n; k++ {
				f.RegionMultiplyAdd(B.Row(i), x.Row(k), A.Get(i, k), b)
			}
		}
		check := A.Clone()
		ForwardSubstitute(f, check, NewMatrix(n, b))
		if Rank(check) == n {
			return A, B, x
		}
	}
	t.Fatal("could not generate a full-rank test system")
	return nil, nil, nil
}

func TestForwardBackSubstituteSolvesSystem(t *testing.T) {
	f := gf.Shared()
	A, B, x := randomFullRankSystem(t, 6, 3, 1)
	_, pivotCols := ForwardSubstitute(f, A, B)
	require.Equal(t, 6, Rank(A))
	BackSubstitute(f, A, B, pivotCols)
	for i := 0; i < 6; i++ {
		require.Equal(t, x.Row(i), B.Row(i))
	}
}

func TestInactivationSolveMatchesDirectGaussian(t *testing.T) {
	f := gf.Shared()
	A, B, x := randomFullRankSystem(t, 10, 2, 2)
	solved := Solve(f, A.Clone(), B.Clone(), true)
	require.True(t, solved.OK)
	// Translate the solved, permuted rows back to original column order to
	// compare against x.
	inv := make([]int, len(solved.Result.ColPivotOrder))
	for newCol, oldCol := range solved.Result.ColPivotOrder {
		inv[oldCol] = newCol
	}
	for oldCol := 0; oldCol < 10; oldCol++ {
		require.Equal(t, x.Row(oldCol), solved.B.Row(inv[oldCol]))
	}
}

func TestRankDeficientReportsWithoutCrash(t *testing.T) {
	f := gf.Shared()
	A := NewMatrix(4, 4)
	B := NewMatrix(4, 1)
	// Row 3 is a duplicate of row 0: rank-deficient by construction.
	r, _ := rng.NewRand(3)
	for i := 0; i < 3; i++ {
		row := A.Row(i)
		for j := 0; j < 4; j++ {
			row[j] = r.Byte()
		}
	}
	copy(A.Row(3), A.Row(0))
	solved := Solve(f, A, B, false)
	require.False(t, solved.OK)
}
