// Package pivot implements the inactivation pivoting engine (spec §4.D) and
// the dense Gaussian elimination primitives (spec §4.E) it and the OA/BD
// decoders build on. Grounded on original_source/src/pivoting.c and
// src/gaussian.c, re-architected per spec §9 Design Notes: contiguous 2-D
// storage with explicit row strides rather than pointer-to-pointer matrices,
// and bucket arrays rather than the original's doubly-linked lists.
package pivot

// Matrix is a dense byte matrix backed by one contiguous allocation, rows
// addressed by stride rather than independent allocations.
type Matrix struct {
	Rows, Cols int
	data       []byte
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, data: make([]byte, rows*cols)}
}

// Row returns a mutable view of row i.
func (m *Matrix) Row(i int) []byte {
	return m.data[i*m.Cols : (i+1)*m.Cols]
}

// Get returns element (i,j).
func (m *Matrix) Get(i, j int) byte { return m.data[i*m.Cols+j] }

// Set assigns element (i,j).
func (m *Matrix) Set(i, j int, v byte) { m.data[i*m.Cols+j] = v }

// SwapRows exchanges rows i and k in place.
func (m *Matrix) SwapRows(i, k int) {
	if i == k {
		return
	}
	ri, rk := m.Row(i), m.Row(k)
	for c := 0; c < m.Cols; c++ {
		ri[c], rk[c] = rk[c], ri[c]
	}
}

// Permuted returns a new matrix with rows reordered by rowOrder (new row i =
// old row rowOrder[i]) and, if colOrder is non-nil, columns reordered by
// colOrder (new col j = old col colOrder[j]).
func (m *Matrix) Permuted(rowOrder, colOrder []int) *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	for newI, oldI := range rowOrder {
		src := m.Row(oldI)
		dst := out.Row(newI)
		if colOrder == nil {
			copy(dst, src)
			continue
		}
		for newJ, oldJ := range colOrder {
			dst[newJ] = src[oldJ]
		}
	}
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{Rows: m.Rows, Cols: m.Cols, data: make([]byte, len(m.data))}
	copy(out.data, m.data)
	return out
}
