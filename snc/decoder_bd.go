package snc

import (
	"io"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/pivot"
)

// bdDecoder implements the banded decoder (spec §4.H): BAND-code packets
// already carry a fixed, a-priori known coefficient support (every
// subgeneration's window is a stride of consecutive ids), so — unlike GG's
// incremental local solves or OA's not-ready/ready promotion — BD simply
// accumulates every arriving row, directly augmented with the precode's
// parity-check equations, into one global banded system and re-pivots it
// whenever enough rows have arrived. Grounded on original_source/src/
// decoderBD.c's band-matrix maintenance, re-architected onto package
// pivot's dense inactivation engine per spec §9 Design Notes.
type bdDecoder struct {
	ctx *Context
	f   *gf.Field
	p   *Params

	rows []oaRow
	n    int // fixed column count: ctx.Meta.Numpp

	known         []bool
	decodedSource int
	packetsIn     int
	cost          int
}

func newBDDecoder(ctx *Context) *bdDecoder {
	d := &bdDecoder{
		ctx:   ctx,
		f:     gf.Shared(),
		p:     ctx.Params,
		n:     ctx.Meta.Numpp,
		known: make([]bool, ctx.Meta.Numpp),
	}
	if ctx.Graph != nil {
		d.addParityRows()
	}
	return d
}

// addParityRows augments the system with the precode's own check equations
// (spec §4.H "parity augmentation"): row sum_e coeff_e*pp[e] XOR pp[snum+i]
// == 0, contributed once up front since the precode graph is fixed at
// Context construction and does not depend on which packets have arrived.
func (d *bdDecoder) addParityRows() {
	snum := d.ctx.Meta.Snum
	for i, edges := range d.ctx.Graph.LeftOfRight {
		ids := make([]int, 0, len(edges)+1)
		coeffs := make([]byte, 0, len(edges)+1)
		for _, e := range edges {
			ids = append(ids, e.Node)
			coeffs = append(coeffs, e.Coeff)
		}
		ids = append(ids, snum+i)
		coeffs = append(coeffs, 1)
		d.rows = append(d.rows, oaRow{
			ids:    ids,
			coeffs: coeffs,
			msg:    make([]byte, d.p.SizeP),
		})
	}
}

func (d *bdDecoder) Kind() DecoderKind { return BDDecoderKind }
func (d *bdDecoder) Context() *Context { return d.ctx }
func (d *bdDecoder) Cost() int         { return d.cost }
func (d *bdDecoder) Overhead() int     { return d.packetsIn - d.ctx.Meta.Snum }
func (d *bdDecoder) Finished() bool    { return d.decodedSource >= d.ctx.Meta.Snum }

func (d *bdDecoder) Process(pk *Packet) error {
	d.packetsIn++

	if pk.IsSystematic() {
		d.rows = append(d.rows, oaRow{
			ids:    []int{int(pk.UCID)},
			coeffs: []byte{1},
			msg:    append([]byte(nil), pk.Syms...),
		})
	} else {
		gene := d.ctx.Genes[pk.GID]
		coeffs := make([]byte, len(gene.PktID))
		for j := range gene.PktID {
			coeffs[j] = pk.Coefficient(d.p, j)
		}
		d.rows = append(d.rows, oaRow{
			ids:    append([]int(nil), gene.PktID...),
			coeffs: coeffs,
			msg:    append([]byte(nil), pk.Syms...),
		})
		d.cost++
	}

	d.attemptGlobalSolve()
	return nil
}

func (d *bdDecoder) attemptGlobalSolve() {
	if len(d.rows) < d.n {
		return
	}
	A := pivot.NewMatrix(len(d.rows), d.n)
	B := pivot.NewMatrix(len(d.rows), d.p.SizeP)
	for ri, row := range d.rows {
		for k, id := range row.ids {
			A.Set(ri, id, row.coeffs[k])
		}
		copy(B.Row(ri), row.msg)
	}
	solved := pivot.Solve(d.f, A, B, true)
	if !solved.OK {
		return
	}
	for newCol, id := range solved.Result.ColPivotOrder {
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

func (d *bdDecoder) Save(w io.Writer) error {
	if err := saveCommon(w, BDDecoderKind, d.ctx.Params); err != nil {
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
	return writeOARows(w, d.rows)
}

// restoreBDDecoder rebuilds a bdDecoder, re-deriving ctx from the persisted
// Params. The persisted rows already include the parity rows newBDDecoder
// would otherwise add, so addParityRows is not re-run here.
func restoreBDDecoder(r io.Reader, p *Params) (*bdDecoder, error) {
	ctx, err := Create(p, nil)
	if err != nil {
		return nil, err
	}
	d := &bdDecoder{
		ctx:   ctx,
		f:     gf.Shared(),
		p:     ctx.Params,
		n:     ctx.Meta.Numpp,
		known: make([]bool, ctx.Meta.Numpp),
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
	if d.rows, err = readOARows(r); err != nil {
		return nil, err
	}
	return d, nil
}
