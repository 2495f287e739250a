// Package bipartite builds the LDPC precode incidence structure used by
// package snc's parity-check construction and GG decoder peeling: a
// bipartite graph between snum source nodes and cnum check nodes, edges
// carrying GF coefficients.
//
// Grounded on spec §4.B, itself the RFC 5053 §5.4.2.3 circulant LDPC
// construction also implemented (for the related Raptor/LT precode) in
// google-gofountain's raptor.go newRaptorDecoder composition-building loop.
package bipartite

import (
	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/rng"
)

// Edge is one non-zero entry of the bipartite incidence matrix.
type Edge struct {
	Node  int
	Coeff byte
}

// Graph holds both adjacency directions so encoder (parity synthesis) and
// decoder (peeling) can walk it without copies.
type Graph struct {
	Snum, Cnum int

	// LeftOfRight[i] lists the source-node edges feeding check row i.
	LeftOfRight [][]Edge
	// RightOfLeft[j] lists the check-node edges a source node j feeds.
	RightOfLeft [][]Edge
}

func newEmptyGraph(snum, cnum int) *Graph {
	return &Graph{
		Snum:        snum,
		Cnum:        cnum,
		LeftOfRight: make([][]Edge, cnum),
		RightOfLeft: make([][]Edge, snum),
	}
}

func (g *Graph) addEdge(left, right int, coeff byte) {
	g.LeftOfRight[right] = append(g.LeftOfRight[right], Edge{Node: left, Coeff: coeff})
	g.RightOfLeft[left] = append(g.RightOfLeft[left], Edge{Node: right, Coeff: coeff})
}

func edgeCoeff(r *rng.Rand, bpc bool) byte {
	if bpc {
		return 1
	}
	return r.NonzeroByte()
}

// NewRaptorGraph builds the default circulant LDPC precode of RFC 5053
// §5.4.2.3: for each check block i in [0, ceil(snum/cnum)) and each column j
// in [0,cnum) with absolute source index i*cnum+j < snum, three checks are
// touched: j, (i+1+j) mod cnum, and (2(i+1)+j) mod cnum.
func NewRaptorGraph(snum, cnum int, bpc bool, r *rng.Rand) *Graph {
	g := newEmptyGraph(snum, cnum)
	if cnum == 0 {
		return g
	}
	blocks := (snum + cnum - 1) / cnum
	for i := 0; i < blocks; i++ {
		for j := 0; j < cnum; j++ {
			idx := i*cnum + j
			if idx >= snum {
				continue
			}
			rows := [3]int{
				j % cnum,
				(i + 1 + j) % cnum,
				(2*(i+1) + j) % cnum,
			}
			// A colliding row index is deduped here rather than added twice:
			// addEdge models a matrix entry ("is this check touched"), not
			// an edge multiset, so two of the three circulant offsets
			// landing on the same row collapse to one edge instead of
			// cancelling or doubling its coefficient.
			seen := map[int]bool{}
			for _, row := range rows {
				if seen[row] {
					continue
				}
				seen[row] = true
				g.addEdge(idx, row, edgeCoeff(r, bpc))
			}
		}
	}
	return g
}

// NewDenseGraph builds the PRECODE=HDPC alternative: every (check, source)
// pair is included independently with probability 1/2 (GF(2), bpc=true) or
// 1/256 (GF(256), bpc=false), per spec §4.B's "optional dense mode".
func NewDenseGraph(snum, cnum int, bpc bool, r *rng.Rand) *Graph {
	g := newEmptyGraph(snum, cnum)
	threshold := 256
	if bpc {
		threshold = 2
	}
	for i := 0; i < cnum; i++ {
		for j := 0; j < snum; j++ {
			if r.Intn(threshold) == 0 {
				g.addEdge(j, i, edgeCoeff(r, bpc))
			}
		}
	}
	return g
}

// ApplyParity fills the cnum parity rows of pp (indices [snum, snum+cnum))
// so that each satisfies pp[snum+i] XOR sum_e coeff_e * pp[e.Node] == 0, i.e.
// pp[snum+i] = sum over left neighbours of coeff*pp[left].
func (g *Graph) ApplyParity(pp [][]byte, sizeP int, f *gf.Field) {
	for i, edges := range g.LeftOfRight {
		row := pp[g.Snum+i]
		for k := range row {
			row[k] = 0
		}
		for _, e := range edges {
			f.RegionMultiplyAdd(row, pp[e.Node], e.Coeff, sizeP)
		}
	}
}

// CheckDegree returns the number of (yet undecided) source-node edges a
// check row initially has — used by the GG decoder's iterative peeling to
// seed check_degrees.
func (g *Graph) CheckDegree(row int) int {
	return len(g.LeftOfRight[row])
}

// VerifyParity reports whether every parity row currently satisfies its
// check equation, used by property tests asserting precode consistency
// (spec §8).
func (g *Graph) VerifyParity(pp [][]byte, sizeP int, f *gf.Field) bool {
	acc := make([]byte, sizeP)
	for i, edges := range g.LeftOfRight {
		for k := range acc {
			acc[k] = 0
		}
		for _, e := range edges {
			f.RegionMultiplyAdd(acc, pp[e.Node], e.Coeff, sizeP)
		}
		f.RegionMultiplyAdd(acc, pp[g.Snum+i], 1, sizeP)
		for _, b := range acc {
			if b != 0 {
				return false
			}
		}
	}
	return true
}
