package pivot

// ZlatevReorder re-pivots the Ias x Ias inactivated tail of A (the
// lower-right block after inactivation pivoting) by greedy Markowitz count:
// at each step it scans the ZlatevScanRows lightest rows and picks the
// (row,col) pair minimizing (row nonzeros - 1)*(col nonzeros - 1), breaking
// ties among those rows. Grounded on spec §4.D's "Zlatev second round".
const ZlatevScanRows = 3

// cand pairs a row index with its current nonzero count for sortByNZ.
type cand struct{ row, nz int }

// ZlatevReorder returns a new row/col order (length ias) describing how to
// further permute the tail so the caller can re-apply it to both the
// inactive tail and the upper block's columns pointing into it.
func ZlatevReorder(tail *Matrix) (rowOrder, colOrder []int) {
	n := tail.Rows
	m := tail.Cols
	rowCount := make([]int, n)
	colCount := make([]int, m)
	for i := 0; i < n; i++ {
		row := tail.Row(i)
		for j := 0; j < m; j++ {
			if row[j] != 0 {
				rowCount[i]++
				colCount[j]++
			}
		}
	}
	rowDone := make([]bool, n)
	colDone := make([]bool, m)
	rowOrder = make([]int, 0, n)
	colOrder = make([]int, 0, m)

	for step := 0; step < n && step < m; step++ {
		// Collect up to ZlatevScanRows lightest not-yet-used rows.
		var lightest []cand
		for i := 0; i < n; i++ {
			if rowDone[i] {
				continue
			}
			lightest = append(lightest, cand{i, rowCount[i]})
		}
		sortByNZ(lightest)
		if len(lightest) > ZlatevScanRows {
			lightest = lightest[:ZlatevScanRows]
		}

		bestRow, bestCol, bestMarkowitz := -1, -1, -1
		for _, c := range lightest {
			row := tail.Row(c.row)
			for j := 0; j < m; j++ {
				if colDone[j] || row[j] == 0 {
					continue
				}
				mkw := (rowCount[c.row] - 1) * (colCount[j] - 1)
				if bestRow == -1 || mkw < bestMarkowitz {
					bestRow, bestCol, bestMarkowitz = c.row, j, mkw
				}
			}
		}
		if bestRow == -1 {
			break
		}
		rowDone[bestRow] = true
		colDone[bestCol] = true
		rowOrder = append(rowOrder, bestRow)
		colOrder = append(colOrder, bestCol)

		row := tail.Row(bestRow)
		for j := 0; j < m; j++ {
			if !colDone[j] && row[j] != 0 {
				colCount[j]--
			}
		}
		for i := 0; i < n; i++ {
			if !rowDone[i] && tail.Get(i, bestCol) != 0 {
				rowCount[i]--
			}
		}
	}
	for i := 0; i < n; i++ {
		if !rowDone[i] {
			rowOrder = append(rowOrder, i)
		}
	}
	for j := 0; j < m; j++ {
		if !colDone[j] {
			colOrder = append(colOrder, j)
		}
	}
	return rowOrder, colOrder
}

func sortByNZ(c []cand) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].nz < c[j-1].nz; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
