package snc

import (
	"io"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/pivot"
)

// oaLocal mirrors ggRunning but never erases columns locally — OA resolves
// everything through one global, cross-subgeneration elimination, so a
// subgeneration only needs to detect that it has reached local full rank
// (spec §4.G "not-ready" vs "ready"). Rows accumulate without a cap, since a
// rank-deficient first size_g rows must not stop later packets for the same
// subgeneration from ever being collected.
type oaLocal struct {
	sizeG    int
	rawCoeff [][]byte
	rawMsg   [][]byte
	ready    bool
}

// oaRow is one equation contributed to the global system: a sparse set of
// original packet/parity ids with matching coefficients, plus its message.
type oaRow struct {
	ids    []int
	coeffs []byte
	msg    []byte
}

// oaDecoder implements the overlap-aware decoder (spec §4.G): subgenerations
// collect locally until each reaches full local rank ("ready"), at which
// point its rows are promoted into one global, growing linear system that
// is periodically re-pivoted and solved with the inactivation engine.
// Grounded on original_source/src/decoderOA.c's two-phase ready list,
// re-architected per spec §9 Design Notes onto package pivot's dense
// inactivation/Gaussian-elimination primitives instead of the original's
// incremental row-echelon bookkeeping.
type oaDecoder struct {
	ctx *Context
	f   *gf.Field
	p   *Params

	gens []*oaLocal
	rows []oaRow

	otoc map[int]int // original packet/parity id -> compact global column
	ctoo []int       // compact global column -> original id

	known         []bool
	decodedSource int
	packetsIn     int
	cost          int
	twoRound      bool
}

func newOADecoder(ctx *Context) *oaDecoder {
	d := &oaDecoder{
		ctx:      ctx,
		f:        gf.Shared(),
		p:        ctx.Params,
		gens:     make([]*oaLocal, ctx.Meta.Gnum),
		otoc:     make(map[int]int),
		known:    make([]bool, ctx.Meta.Numpp),
		twoRound: !ctx.Params.OAOneRound,
	}
	for g, gene := range ctx.Genes {
		d.gens[g] = &oaLocal{sizeG: len(gene.PktID)}
	}
	return d
}

func (d *oaDecoder) Kind() DecoderKind { return OADecoderKind }
func (d *oaDecoder) Context() *Context { return d.ctx }
func (d *oaDecoder) Cost() int         { return d.cost }
func (d *oaDecoder) Overhead() int     { return d.packetsIn - d.ctx.Meta.Snum }
func (d *oaDecoder) Finished() bool    { return d.decodedSource >= d.ctx.Meta.Snum }

func (d *oaDecoder) compactCol(id int) int {
	if c, ok := d.otoc[id]; ok {
		return c
	}
	c := len(d.ctoo)
	d.otoc[id] = c
	d.ctoo = append(d.ctoo, id)
	return c
}

func (d *oaDecoder) Process(pk *Packet) error {
	d.packetsIn++

	if pk.IsSystematic() {
		id := int(pk.UCID)
		d.compactCol(id)
		d.rows = append(d.rows, oaRow{
			ids:    []int{id},
			coeffs: []byte{1},
			msg:    append([]byte(nil), pk.Syms...),
		})
		d.attemptGlobalSolve()
		return nil
	}

	gid := int(pk.GID)
	gen := d.gens[gid]
	if gen.ready {
		return nil
	}
	gene := d.ctx.Genes[gid]
	row := make([]byte, gen.sizeG)
	for j := range gene.PktID {
		row[j] = pk.Coefficient(d.p, j)
	}
	gen.rawCoeff = append(gen.rawCoeff, row)
	gen.rawMsg = append(gen.rawMsg, append([]byte(nil), pk.Syms...))
	d.cost++

	filled := len(gen.rawCoeff)
	if filled < gen.sizeG {
		return nil
	}
	work := pivot.NewMatrix(filled, gen.sizeG)
	for i := 0; i < filled; i++ {
		copy(work.Row(i), gen.rawCoeff[i])
	}
	_, pivotCols := pivot.ForwardSubstitute(d.f, work, pivot.NewMatrix(filled, 0))
	if len(pivotCols) < gen.sizeG {
		return nil
	}
	gen.ready = true
	for _, id := range gene.PktID {
		d.compactCol(id)
	}
	for r := 0; r < filled; r++ {
		ids := append([]int(nil), gene.PktID...)
		coeffs := append([]byte(nil), gen.rawCoeff[r]...)
		msg := append([]byte(nil), gen.rawMsg[r]...)
		d.rows = append(d.rows, oaRow{ids: ids, coeffs: coeffs, msg: msg})
	}
	d.attemptGlobalSolve()
	return nil
}

// attemptGlobalSolve assembles the current sparse rows into a dense global
// system and runs the inactivation pivoting engine, per spec §4.G's "once
// ready equations span the full unknown set, solve globally".
// attemptGlobalSolve requires not just n equations but n+AOH, the allowed
// overhead of spec §4.G's readiness condition ("local_DoF >= snum AND
// overhead >= snum + aoh"): collecting a few extra rows before the first
// expensive pivot/solve attempt raises the odds the assembled system is
// already full rank, trading a little latency for fewer wasted passes.
func (d *oaDecoder) attemptGlobalSolve() {
	n := len(d.ctoo)
	if n == 0 || len(d.rows) < n+d.p.AOH {
		return
	}
	A := pivot.NewMatrix(len(d.rows), n)
	B := pivot.NewMatrix(len(d.rows), d.p.SizeP)
	rawRows := make([][]byte, len(d.rows))
	for ri, row := range d.rows {
		for k, id := range row.ids {
			A.Set(ri, d.otoc[id], row.coeffs[k])
		}
		copy(B.Row(ri), row.msg)
		rawRows[ri] = A.Row(ri)
	}
	if !estimateFullRank(rawRows, n) {
		return
	}
	solved := pivot.Solve(d.f, A, B, d.twoRound)
	if !solved.OK {
		return
	}
	for newCol, compactCol := range solved.Result.ColPivotOrder {
		id := d.ctoo[compactCol]
		if d.known[id] {
			continue
		}
		d.ctx.SetPacket(id, solved.B.Row(newCol))
		d.known[id] = true
		if id < d.ctx.Meta.Snum {
			d.decodedSource++
		}
	}
}

// Save persists Params, every recovered symbol, the promoted global rows,
// and every subgeneration's own not-yet-ready local accumulator, so a
// restored decoder can keep collecting toward both local readiness and the
// next global solve attempt exactly as the original would have.
func (d *oaDecoder) Save(w io.Writer) error {
	if err := saveCommon(w, OADecoderKind, d.ctx.Params); err != nil {
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
	if err := writeIntsLP(w, d.ctoo); err != nil {
		return err
	}
	if err := writeOARows(w, d.rows); err != nil {
		return err
	}
	if err := writeInt(w, len(d.gens)); err != nil {
		return err
	}
	for _, gen := range d.gens {
		if err := writeBoolsLP(w, []bool{gen.ready}); err != nil {
			return err
		}
		if err := writeByteMatrixLP(w, gen.rawCoeff); err != nil {
			return err
		}
		if err := writeByteMatrixLP(w, gen.rawMsg); err != nil {
			return err
		}
	}
	return nil
}

// restoreOADecoder rebuilds an oaDecoder, re-deriving ctx and the per-
// subgeneration sizeG values from the persisted Params, then refilling the
// global column map, the promoted rows, and every subgeneration's local
// accumulator from the stream.
func restoreOADecoder(r io.Reader, p *Params) (*oaDecoder, error) {
	ctx, err := Create(p, nil)
	if err != nil {
		return nil, err
	}
	d := &oaDecoder{
		ctx:      ctx,
		f:        gf.Shared(),
		p:        ctx.Params,
		gens:     make([]*oaLocal, ctx.Meta.Gnum),
		otoc:     make(map[int]int),
		known:    make([]bool, ctx.Meta.Numpp),
		twoRound: !ctx.Params.OAOneRound,
	}
	for g, gene := range ctx.Genes {
		d.gens[g] = &oaLocal{sizeG: len(gene.PktID)}
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
	if d.ctoo, err = readIntsLP(r); err != nil {
		return nil, err
	}
	for c, id := range d.ctoo {
		d.otoc[id] = c
	}
	if d.rows, err = readOARows(r); err != nil {
		return nil, err
	}
	ngens, err := readInt(r)
	if err != nil {
		return nil, err
	}
	for g := 0; g < ngens; g++ {
		readyFlags, err := readBoolsLP(r)
		if err != nil {
			return nil, err
		}
		d.gens[g].ready = len(readyFlags) > 0 && readyFlags[0]
		if d.gens[g].rawCoeff, err = readByteMatrixLP(r); err != nil {
			return nil, err
		}
		if d.gens[g].rawMsg, err = readByteMatrixLP(r); err != nil {
			return nil, err
		}
	}
	return d, nil
}
