package snc

import "github.com/xinyu-esg/sparsenc-sub000/rng"

// Gene is one subgeneration: an ordered, duplicate-free list of packet
// indices (spec §3).
type Gene struct {
	PktID []int
}

// buildGenerations constructs all Gnum subgenerations per spec §4.C step 4.
func buildGenerations(p *Params, meta Metainfo, r *rng.Rand) []Gene {
	genes := make([]Gene, meta.Gnum)
	switch p.Type {
	case BAND:
		for g := 0; g < meta.Gnum; g++ {
			genes[g] = bandGene(g, p.SizeB, p.SizeG, meta.Numpp)
		}
	case WINDWRAP:
		for g := 0; g < meta.Gnum; g++ {
			genes[g] = windwrapGene(g, p.SizeB, p.SizeG, meta.Numpp)
		}
	default: // RAND
		for g := 0; g < meta.Gnum; g++ {
			genes[g] = randGene(g, p.SizeB, p.SizeG, meta.Numpp, r)
		}
	}
	return genes
}

func bandGene(g, sizeB, sizeG, numpp int) Gene {
	leading := g * sizeB
	if leading > numpp-sizeG {
		leading = numpp - sizeG
	}
	if leading < 0 {
		leading = 0
	}
	ids := make([]int, sizeG)
	for j := 0; j < sizeG; j++ {
		ids[j] = leading + j
	}
	return Gene{PktID: ids}
}

func windwrapGene(g, sizeB, sizeG, numpp int) Gene {
	ids := make([]int, sizeG)
	for j := 0; j < sizeG; j++ {
		ids[j] = (g*sizeB + j) % numpp
	}
	return Gene{PktID: ids}
}

// randGene fills the first sizeB slots deterministically by stride, then
// samples the remainder from the PRNG until no duplicate arises within the
// subgeneration. Per spec §9 Open Questions, the resampling loop is capped;
// once the cap is hit the slot takes the first unused index in scan order
// rather than looping forever.
const randGeneMaxAttempts = 10000

func randGene(g, sizeB, sizeG, numpp int, r *rng.Rand) Gene {
	ids := make([]int, 0, sizeG)
	present := make(map[int]bool, sizeG)
	for j := 0; j < sizeB; j++ {
		idx := (g*sizeB + j) % numpp
		ids = append(ids, idx)
		present[idx] = true
	}
	for len(ids) < sizeG {
		ok := false
		for attempt := 0; attempt < randGeneMaxAttempts; attempt++ {
			idx := r.Intn(numpp)
			if !present[idx] {
				ids = append(ids, idx)
				present[idx] = true
				ok = true
				break
			}
		}
		if !ok {
			// Parameters make uniqueness unreachable (sizeG close to numpp
			// under pathological PRNG alignment); pad with the first unused
			// index in scan order rather than looping forever.
			for idx := 0; idx < numpp; idx++ {
				if !present[idx] {
					ids = append(ids, idx)
					present[idx] = true
					break
				}
			}
		}
	}
	return Gene{PktID: ids}
}

// VerifyFullCoverage checks spec §3's RAND invariant: every index in
// [0,numpp) appears in at least one subgeneration.
func VerifyFullCoverage(genes []Gene, numpp int) bool {
	seen := make([]bool, numpp)
	for _, g := range genes {
		for _, idx := range g.PktID {
			seen[idx] = true
		}
	}
	for _, ok := range seen {
		if !ok {
			return false
		}
	}
	return true
}
