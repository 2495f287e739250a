package pivot

import "github.com/xinyu-esg/sparsenc-sub000/gf"

// ForwardSubstitute row-reduces A (in place) to upper-triangular form,
// applying every elimination step to B as well, per spec §4.E. For each
// column it finds the first row at or below the current pivot row with a
// non-zero entry, swaps it into place, then eliminates that column out of
// every row below with RegionMultiplyAdd.
//
// It returns the pivot column chosen for each occupied row (PivotCols[r] is
// the column row r was pivoted on, for r < rank; entries beyond the
// returned rank are unused) along with the elimination operation count —
// the original's declared "operation count". Columns with no non-zero entry
// anywhere below the current pivot row (e.g. GG's already-erased columns)
// are simply skipped, which is why callers must consult PivotCols rather
// than assume row i pivots column i.
func ForwardSubstitute(f *gf.Field, A, B *Matrix) (ops int, pivotCols []int) {
	pivotRow := 0
	limit := A.Cols
	pivotCols = make([]int, 0, A.Rows)
	for col := 0; col < limit && pivotRow < A.Rows; col++ {
		sel := -1
		for r := pivotRow; r < A.Rows; r++ {
			if A.Get(r, col) != 0 {
				sel = r
				break
			}
		}
		if sel == -1 {
			continue
		}
		if sel != pivotRow {
			A.SwapRows(sel, pivotRow)
			B.SwapRows(sel, pivotRow)
		}
		pivotVal := A.Get(pivotRow, col)
		for r := pivotRow + 1; r < A.Rows; r++ {
			e := A.Get(r, col)
			if e == 0 {
				continue
			}
			c := f.Div(e, pivotVal)
			f.RegionMultiplyAdd(A.Row(r), A.Row(pivotRow), c, A.Cols)
			f.RegionMultiplyAdd(B.Row(r), B.Row(pivotRow), c, B.Cols)
			ops++
		}
		pivotCols = append(pivotCols, col)
		pivotRow++
	}
	return ops, pivotCols
}

// Rank returns the number of non-zero rows in A — i.e. how many pivots
// ForwardSubstitute found — used to detect rank deficiency (spec §8 "for
// any rank-deficient input, it reports the deficiency without crashing").
func Rank(A *Matrix) int {
	rank := 0
	for r := 0; r < A.Rows; r++ {
		row := A.Row(r)
		nonzero := false
		for _, v := range row {
			if v != 0 {
				nonzero = true
				break
			}
		}
		if nonzero {
			rank++
		}
	}
	return rank
}

// BackSubstitute reduces the upper-triangular rows produced by
// ForwardSubstitute (row r pivots column pivotCols[r]) to the identity on
// those columns, propagating every row operation to B, and rescales each
// pivot row so its diagonal becomes 1. Rows beyond len(pivotCols) are left
// untouched (rank-deficient tail), matching spec §4.E's "skip rows whose
// leading element is already 0".
func BackSubstitute(f *gf.Field, A, B *Matrix, pivotCols []int) {
	for i := len(pivotCols) - 1; i >= 0; i-- {
		col := pivotCols[i]
		diag := A.Get(i, col)
		if diag == 0 {
			continue
		}
		for r := 0; r < i; r++ {
			e := A.Get(r, col)
			if e == 0 {
				continue
			}
			c := f.Div(e, diag)
			f.RegionMultiplyAdd(A.Row(r), A.Row(i), c, A.Cols)
			f.RegionMultiplyAdd(B.Row(r), B.Row(i), c, B.Cols)
		}
		if diag != 1 {
			inv := f.Div(1, diag)
			f.RegionMultiply(A.Row(i), inv, A.Cols)
			f.RegionMultiply(B.Row(i), inv, B.Cols)
		}
	}
}

// SquarePivotCols returns the trivial identity pivot mapping [0,1,2,...,n)
// for callers (the PP decoder) whose matrices are pre-arranged so row i
// always pivots column i when full rank.
func SquarePivotCols(n int) []int {
	cols := make([]int, n)
	for i := range cols {
		cols[i] = i
	}
	return cols
}
