package snc

import (
	"io"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/pivot"
)

// ggRunning is one subgeneration's local linear system, spec §4.F
// "RunningMatrix": a growing list of coefficient/message rows (growing,
// rather than capped at size_g, since a rank-deficient first size_g rows
// must not block further packets for the same subgeneration from ever
// being collected) plus an erased bitmask for columns already resolved by
// cross-generation substitution.
type ggRunning struct {
	sizeG         int
	erased        []bool
	remainingCols int
	rawCoeff      [][]byte
	rawMsg        [][]byte
}

// ggDecoder implements the generation-by-generation decoder: local solving
// per subgeneration plus iterative LDPC peeling plus cross-generation
// substitution (spec §4.F). Grounded on original_source/src/decoderGG.c
// and src/gncGGDecoder.c, re-architected to an immutable peeling graph with
// a resolved-neighbour counter per spec §9 Design Notes (rather than the
// original's adjacency-mutating remove_from_list).
type ggDecoder struct {
	ctx *Context
	f   *gf.Field
	p   *Params

	gens []*ggRunning

	known         []bool   // numpp-length: has this source/parity symbol been recovered
	evolvingCheck [][]byte // cnum-length, nil until first contribution
	checkDegree   []int
	checkKnown    []bool
	checkVal      [][]byte

	decodedSource int
	packetsIn     int
	cost          int
}

func newGGDecoder(ctx *Context) *ggDecoder {
	meta := ctx.Meta
	d := &ggDecoder{
		ctx:   ctx,
		f:     gf.Shared(),
		p:     ctx.Params,
		gens:  make([]*ggRunning, meta.Gnum),
		known: make([]bool, meta.Numpp),
	}
	for g, gene := range ctx.Genes {
		sizeG := len(gene.PktID)
		d.gens[g] = &ggRunning{
			sizeG:         sizeG,
			erased:        make([]bool, sizeG),
			remainingCols: sizeG,
		}
	}
	if meta.Cnum > 0 {
		d.evolvingCheck = make([][]byte, meta.Cnum)
		d.checkDegree = make([]int, meta.Cnum)
		d.checkKnown = make([]bool, meta.Cnum)
		d.checkVal = make([][]byte, meta.Cnum)
		for i := 0; i < meta.Cnum; i++ {
			d.checkDegree[i] = ctx.Graph.CheckDegree(i)
		}
	}
	return d
}

func (d *ggDecoder) Kind() DecoderKind { return GGDecoderKind }
func (d *ggDecoder) Context() *Context { return d.ctx }
func (d *ggDecoder) Cost() int         { return d.cost }
func (d *ggDecoder) Overhead() int     { return d.packetsIn - d.ctx.Meta.Snum }
func (d *ggDecoder) Finished() bool    { return d.decodedSource >= d.ctx.Meta.Snum }

func (d *ggDecoder) Process(pk *Packet) error {
	d.packetsIn++
	var recent []int

	if pk.IsSystematic() {
		idx := int(pk.UCID)
		if !d.known[idx] {
			d.ctx.SetPacket(idx, pk.Syms)
			d.known[idx] = true
			recent = append(recent, idx)
		}
	} else {
		gid := int(pk.GID)
		gen := d.gens[gid]
		if gen.remainingCols > 0 {
			gene := d.ctx.Genes[gid]
			row := make([]byte, gen.sizeG)
			msg := append([]byte(nil), pk.Syms...)
			for j, pktIdx := range gene.PktID {
				c := pk.Coefficient(d.p, j)
				if gen.erased[j] {
					if c != 0 {
						d.f.RegionMultiplyAdd(msg, d.ctx.Packet(pktIdx), c, d.p.SizeP)
					}
					continue
				}
				row[j] = c
			}
			gen.rawCoeff = append(gen.rawCoeff, row)
			gen.rawMsg = append(gen.rawMsg, msg)
			d.cost++
		}
		recent = append(recent, d.tryFinalize(gid)...)
	}

	d.drain(recent)
	return nil
}

// tryFinalize runs forward/back substitution on gid's local matrix once it
// has enough rows, per spec §4.F step 3.
func (d *ggDecoder) tryFinalize(gid int) []int {
	gen := d.gens[gid]
	filled := len(gen.rawCoeff)
	if gen.remainingCols == 0 || filled < gen.remainingCols-1 {
		return nil
	}
	gene := d.ctx.Genes[gid]
	workA := pivot.NewMatrix(filled, gen.sizeG)
	workB := pivot.NewMatrix(filled, d.p.SizeP)
	for i := 0; i < filled; i++ {
		copy(workA.Row(i), gen.rawCoeff[i])
		copy(workB.Row(i), gen.rawMsg[i])
	}
	_, pivotCols := pivot.ForwardSubstitute(d.f, workA, workB)
	if len(pivotCols) < gen.remainingCols {
		return nil
	}
	pivot.BackSubstitute(d.f, workA, workB, pivotCols)

	var recent []int
	for i, col := range pivotCols {
		if gen.erased[col] {
			continue
		}
		pktIdx := gene.PktID[col]
		d.ctx.SetPacket(pktIdx, workB.Row(i))
		gen.erased[col] = true
		gen.remainingCols--
		if !d.known[pktIdx] {
			d.known[pktIdx] = true
			recent = append(recent, pktIdx)
		}
	}
	return recent
}

// drain processes the "recent" worklist to a fixpoint: LDPC peeling (spec
// §4.F step 4) and cross-generation substitution (step 5), re-attempting
// any subgeneration whose readiness condition newly holds (step 6).
func (d *ggDecoder) drain(recent []int) {
	for len(recent) > 0 {
		id := recent[0]
		recent = recent[1:]

		if !d.known[id] {
			d.known[id] = true
		}
		if id < d.ctx.Meta.Snum {
			d.decodedSource++
		}

		if d.ctx.Meta.Cnum > 0 {
			recent = append(recent, d.peel(id)...)
		}
		recent = append(recent, d.substitute(id)...)
	}
}

// peel updates check-node bookkeeping when source or check id is decoded,
// per spec §4.F step 4.
func (d *ggDecoder) peel(id int) []int {
	var newlyKnown []int
	snum := d.ctx.Meta.Snum
	if id < snum {
		for _, e := range d.ctx.Graph.RightOfLeft[id] {
			i := e.Node
			if d.checkKnown[i] {
				continue
			}
			if d.evolvingCheck[i] == nil {
				d.evolvingCheck[i] = make([]byte, d.p.SizeP)
			}
			d.f.RegionMultiplyAdd(d.evolvingCheck[i], d.ctx.Packet(id), e.Coeff, d.p.SizeP)
			d.checkDegree[i]--
			newlyKnown = append(newlyKnown, d.tryResolveCheck(i)...)
		}
		return newlyKnown
	}

	i := id - snum
	if d.checkKnown[i] {
		return nil
	}
	if d.evolvingCheck[i] == nil {
		d.evolvingCheck[i] = append([]byte(nil), d.ctx.Packet(id)...)
	} else {
		d.f.RegionMultiplyAdd(d.evolvingCheck[i], d.ctx.Packet(id), 1, d.p.SizeP)
	}
	d.checkKnown[i] = true
	d.checkVal[i] = append([]byte(nil), d.ctx.Packet(id)...)
	return d.tryResolveCheck(i)
}

func (d *ggDecoder) tryResolveCheck(i int) []int {
	snum := d.ctx.Meta.Snum
	var out []int
	if d.checkDegree[i] == 0 && !d.checkKnown[i] {
		d.checkKnown[i] = true
		d.checkVal[i] = append([]byte(nil), d.evolvingCheck[i]...)
		if !d.known[snum+i] {
			d.ctx.SetPacket(snum+i, d.checkVal[i])
			d.known[snum+i] = true
			out = append(out, snum+i)
		}
		return out
	}
	if d.checkDegree[i] == 1 && d.checkKnown[i] {
		for _, e := range d.ctx.Graph.LeftOfRight[i] {
			if d.known[e.Node] {
				continue
			}
			// evolvingCheck holds the check value plus every known
			// neighbour's contribution, leaving exactly coeff*pp[e.Node].
			val := make([]byte, d.p.SizeP)
			d.f.RegionMultiplyAdd(val, d.evolvingCheck[i], d.f.Div(1, e.Coeff), d.p.SizeP)
			d.ctx.SetPacket(e.Node, val)
			d.known[e.Node] = true
			out = append(out, e.Node)
			break
		}
	}
	return out
}

// substitute folds a newly decoded id out of every other subgeneration's
// RunningMatrix, per spec §4.F step 5.
func (d *ggDecoder) substitute(id int) []int {
	var recent []int
	for gid, gene := range d.ctx.Genes {
		gen := d.gens[gid]
		for j, pktIdx := range gene.PktID {
			if pktIdx != id || gen.erased[j] {
				continue
			}
			for r := range gen.rawCoeff {
				c := gen.rawCoeff[r][j]
				if c == 0 {
					continue
				}
				d.f.RegionMultiplyAdd(gen.rawMsg[r], d.ctx.Packet(id), c, d.p.SizeP)
				gen.rawCoeff[r][j] = 0
			}
			gen.erased[j] = true
			gen.remainingCols--
		}
		if gen.remainingCols > 0 && len(gen.rawCoeff) >= gen.remainingCols {
			recent = append(recent, d.tryFinalize(gid)...)
		}
	}
	return recent
}

// Save persists Params, every recovered symbol, every subgeneration's
// in-flight local matrix (erased mask plus unresolved rows), and the LDPC
// check-node bookkeeping, so a restored decoder reaches the same finished
// state as one fed the same packet stream without ever suspending.
func (d *ggDecoder) Save(w io.Writer) error {
	if err := saveCommon(w, GGDecoderKind, d.ctx.Params); err != nil {
		return err
	}
	if err := writeKnownPackets(w, d.ctx, d.known); err != nil {
		return err
	}
	if err := writeInt(w, d.decodedSource); err != nil {
		return err
	}
	if err := writeInt(w, d.packetsIn); err != nil {
		return err
	}
	if err := writeInt(w, d.cost); err != nil {
		return err
	}
	if err := writeInt(w, len(d.gens)); err != nil {
		return err
	}
	for _, gen := range d.gens {
		if err := writeInt(w, gen.remainingCols); err != nil {
			return err
		}
		if err := writeBoolsLP(w, gen.erased); err != nil {
			return err
		}
		if err := writeByteMatrixLP(w, gen.rawCoeff); err != nil {
			return err
		}
		if err := writeByteMatrixLP(w, gen.rawMsg); err != nil {
			return err
		}
	}
	if d.ctx.Meta.Cnum == 0 {
		return nil
	}
	if err := writeOptByteMatrixLP(w, d.evolvingCheck); err != nil {
		return err
	}
	if err := writeIntsLP(w, d.checkDegree); err != nil {
		return err
	}
	if err := writeBoolsLP(w, d.checkKnown); err != nil {
		return err
	}
	return writeOptByteMatrixLP(w, d.checkVal)
}

// restoreGGDecoder rebuilds a ggDecoder, re-deriving ctx and each
// subgeneration's sizeG from the persisted Params, then refilling every
// subgeneration's erased mask and unresolved rows plus the LDPC check-node
// state from the stream.
func restoreGGDecoder(r io.Reader, p *Params) (*ggDecoder, error) {
	ctx, err := Create(p, nil)
	if err != nil {
		return nil, err
	}
	meta := ctx.Meta
	d := &ggDecoder{
		ctx:   ctx,
		f:     gf.Shared(),
		p:     ctx.Params,
		gens:  make([]*ggRunning, meta.Gnum),
		known: make([]bool, meta.Numpp),
	}
	if err := readKnownPackets(r, ctx, d.known); err != nil {
		return nil, err
	}
	if d.decodedSource, err = readInt(r); err != nil {
		return nil, err
	}
	if d.packetsIn, err = readInt(r); err != nil {
		return nil, err
	}
	if d.cost, err = readInt(r); err != nil {
		return nil, err
	}
	ngens, err := readInt(r)
	if err != nil {
		return nil, err
	}
	for g := 0; g < ngens; g++ {
		gen := &ggRunning{sizeG: len(ctx.Genes[g].PktID)}
		if gen.remainingCols, err = readInt(r); err != nil {
			return nil, err
		}
		if gen.erased, err = readBoolsLP(r); err != nil {
			return nil, err
		}
		if gen.rawCoeff, err = readByteMatrixLP(r); err != nil {
			return nil, err
		}
		if gen.rawMsg, err = readByteMatrixLP(r); err != nil {
			return nil, err
		}
		d.gens[g] = gen
	}
	if meta.Cnum == 0 {
		return d, nil
	}
	if d.evolvingCheck, err = readOptByteMatrixLP(r); err != nil {
		return nil, err
	}
	if d.checkDegree, err = readIntsLP(r); err != nil {
		return nil, err
	}
	if d.checkKnown, err = readBoolsLP(r); err != nil {
		return nil, err
	}
	if d.checkVal, err = readOptByteMatrixLP(r); err != nil {
		return nil, err
	}
	return d, nil
}
