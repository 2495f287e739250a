package pivot

import "github.com/xinyu-esg/sparsenc-sub000/gf"

// Solved is the full result of running inactivation (optionally followed by
// a Zlatev second round) and then solving the reordered system, as used by
// the OA and BD decoders.
type Solved struct {
	Result Result
	A, B   *Matrix // permuted, solved (identity-on-active-block) matrices
	Rank   int
	OK     bool // false if the system turned out rank-deficient
}

// Solve reorders A (nrow x ncolA) and B (nrow x ncolB) per an inactivation
// pivot, eliminates the active block down to the dense inactive tail,
// forward- and back-substitutes that tail, and reports whether the system
// was full rank. If twoRound is true, the tail is additionally re-pivoted by
// Zlatev's Markowitz-count strategy before substitution (spec §4.D).
func Solve(f *gf.Field, A, B *Matrix, twoRound bool) *Solved {
	eng := NewEngine()
	res := eng.Inactivate(A.Rows, A.Cols, A)
	if len(res.RowPivotOrder) < A.Cols {
		return &Solved{Result: res, OK: false}
	}

	permA := A.Permuted(res.RowPivotOrder, res.ColPivotOrder)
	permB := B.Permuted(res.RowPivotOrder, nil)
	active := A.Cols - res.Ias

	// Eliminate below each active pivot; fill-in lands only in the inactive
	// tail columns (>= active) since columns < active are already a pivot
	// echelon by construction.
	for p := 0; p < active; p++ {
		pivotVal := permA.Get(p, p)
		if pivotVal == 0 {
			return &Solved{Result: res, OK: false}
		}
		for r := p + 1; r < permA.Rows; r++ {
			e := permA.Get(r, p)
			if e == 0 {
				continue
			}
			c := f.Div(e, pivotVal)
			f.RegionMultiplyAdd(permA.Row(r), permA.Row(p), c, permA.Cols)
			f.RegionMultiplyAdd(permB.Row(r), permB.Row(p), c, permB.Cols)
		}
	}

	if res.Ias > 0 {
		tail := extractTail(permA, active, A.Cols)
		if twoRound {
			rowOrd, colOrd := ZlatevReorder(tail)
			applyTailReorder(permA, permB, active, A.Cols, rowOrd, colOrd)
			// Carry the permutation into the reported orders and the upper rows' tail columns.
			tailRows := append([]int(nil), res.RowPivotOrder[active:A.Cols]...)
			tailCols := append([]int(nil), res.ColPivotOrder[active:A.Cols]...)
			for k := range rowOrd {
				res.RowPivotOrder[active+k] = tailRows[rowOrd[k]]
				res.ColPivotOrder[active+k] = tailCols[colOrd[k]]
			}
			old := make([]byte, res.Ias)
			for p := 0; p < active; p++ {
				row := permA.Row(p)
				copy(old, row[active:A.Cols])
				for newJ, oldJ := range colOrd {
					row[active+newJ] = old[oldJ]
				}
			}
		}
		tailA := extractTail(permA, active, A.Cols)
		tailB := extractRows(permB, active, active+res.Ias)
		_, pivotCols := ForwardSubstitute(f, tailA, tailB)
		if len(pivotCols) < res.Ias {
			return &Solved{Result: res, OK: false}
		}
		BackSubstitute(f, tailA, tailB, pivotCols)
		writeBack(permA, permB, active, A.Cols, tailA, tailB)
	}

	// Clean the active block's entries in the inactive columns against the
	// now-solved tail, then rescale active diagonals to 1.
	for p := 0; p < active; p++ {
		for j := active; j < A.Cols; j++ {
			e := permA.Get(p, j)
			if e == 0 {
				continue
			}
			// permB.Row(j) already holds the solved message for inactive
			// column j (written back by the tail substitution above).
			f.RegionMultiplyAdd(permB.Row(p), permB.Row(j), e, permB.Cols)
			permA.Set(p, j, 0)
		}
		diag := permA.Get(p, p)
		if diag != 1 && diag != 0 {
			inv := f.Div(1, diag)
			f.RegionMultiply(permA.Row(p), inv, permA.Cols)
			f.RegionMultiply(permB.Row(p), inv, permB.Cols)
		}
	}

	return &Solved{Result: res, A: permA, B: permB, Rank: Rank(permA), OK: true}
}

func extractTail(m *Matrix, from, to int) *Matrix {
	n := to - from
	out := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		src := m.Row(from + i)[from:to]
		copy(out.Row(i), src)
	}
	return out
}

func extractRows(m *Matrix, from, to int) *Matrix {
	n := to - from
	out := NewMatrix(n, m.Cols)
	for i := 0; i < n; i++ {
		copy(out.Row(i), m.Row(from+i))
	}
	return out
}

func writeBack(permA, permB *Matrix, from, to int, tailA, tailB *Matrix) {
	for i := 0; i < to-from; i++ {
		dstA := permA.Row(from + i)
		for j := 0; j < to-from; j++ {
			dstA[from+j] = tailA.Get(i, j)
		}
		copy(permB.Row(from+i), tailB.Row(i))
	}
}

func applyTailReorder(permA, permB *Matrix, from, to int, rowOrd, colOrd []int) {
	n := to - from
	newA := NewMatrix(n, n)
	newB := NewMatrix(n, permB.Cols)
	for newI, oldI := range rowOrd {
		srcA := permA.Row(from + oldI)[from:to]
		dstA := newA.Row(newI)
		for newJ, oldJ := range colOrd {
			dstA[newJ] = srcA[oldJ]
		}
		copy(newB.Row(newI), permB.Row(from+oldI))
	}
	for i := 0; i < n; i++ {
		dstA := permA.Row(from + i)
		for j := 0; j < n; j++ {
			dstA[from+j] = newA.Get(i, j)
		}
		copy(permB.Row(from+i), newB.Row(i))
	}
}
