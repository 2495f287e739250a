package snc

import "gonum.org/v1/gonum/mat"

// estimateFullRank is an approximate, float64 pre-check for whether an
// nrow x ncol GF(256) coefficient matrix is likely full column rank,
// reused from swarna1101-RLNC-demo/main.go's Peer.isInnovative (an SVD
// rank check over the same byte-valued coefficients, there used to decide
// whether one more symbol is innovative). The OA decoder's global system
// only grows, and pivoting it is the expensive step, so a cheap SVD
// estimate before attempting pivot.Solve skips that cost when the
// real-valued rank is short. Real and GF(256) rank can differ, so it can
// also skip a system that is full rank over GF(256); that attempt is then
// repeated when the next rows arrive. It is a fast-reject only,
// never a fast-accept: a positive result always falls through to the
// exact GF(256) solve, never substitutes for it.
func estimateFullRank(rows [][]byte, ncol int) bool {
	nrow := len(rows)
	if nrow < ncol {
		return false
	}
	data := make([]float64, nrow*ncol)
	for i, row := range rows {
		for j := 0; j < ncol; j++ {
			data[i*ncol+j] = float64(row[j])
		}
	}
	m := mat.NewDense(nrow, ncol, data)
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		return true // factorization failure: don't block the exact solve
	}
	vals := svd.Values(nil)
	rank := 0
	const threshold = 1e-6
	for _, v := range vals {
		if v > threshold {
			rank++
		}
	}
	return rank >= ncol
}
