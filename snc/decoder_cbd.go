package snc

import (
	"io"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/pivot"
)

// cbdDecoder implements the compact banded decoder (spec §4.I): like BD it
// targets BAND codes (though NewDecoder does not reject CBD for other code
// types) and accumulates a global system augmented with parity rows,
// but it never invokes the inactivation engine — it relies on the band's
// naturally monotone column support to reach full rank through a plain
// left-to-right forward/back substitution sweep (pivot.ForwardSubstitute's
// own within-column row search, with no column reordering and no dense
// inactive tail). Grounded on original_source/src/decoderCBD.c's compact
// row storage, re-architected per spec §9 Design Notes onto package
// pivot's dense substitution primitives rather than a bespoke banded
// representation.
type cbdDecoder struct {
	ctx *Context
	f   *gf.Field
	p   *Params

	rows []oaRow
	n    int

	known         []bool
	decodedSource int
	packetsIn     int
	cost          int
}

func newCBDDecoder(ctx *Context) *cbdDecoder {
	d := &cbdDecoder{
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

func (d *cbdDecoder) addParityRows() {
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

func (d *cbdDecoder) Kind() DecoderKind { return CBDDecoderKind }
func (d *cbdDecoder) Context() *Context { return d.ctx }
func (d *cbdDecoder) Cost() int         { return d.cost }
func (d *cbdDecoder) Overhead() int     { return d.packetsIn - d.ctx.Meta.Snum }
func (d *cbdDecoder) Finished() bool    { return d.decodedSource >= d.ctx.Meta.Snum }

func (d *cbdDecoder) Process(pk *Packet) error {
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

	d.attemptSweep()
	return nil
}

func (d *cbdDecoder) attemptSweep() {
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
	_, pivotCols := pivot.ForwardSubstitute(d.f, A, B)
	if len(pivotCols) < d.n {
		return
	}
	pivot.BackSubstitute(d.f, A, B, pivotCols)
	for i, col := range pivotCols {
		if d.known[col] {
			continue
		}
		d.ctx.SetPacket(col, B.Row(i))
		d.known[col] = true
		if col < d.ctx.Meta.Snum {
			d.decodedSource++
		}
	}
}

// Save persists Params, every recovered symbol, and the full unresolved row
// buffer (spec.md: a restored decoder must reach the same finished state as
// one fed the same stream without suspending), so a restore can resume
// accumulating rows toward the first full-rank sweep exactly where this
// decoder left off.
func (d *cbdDecoder) Save(w io.Writer) error {
	if err := saveCommon(w, CBDDecoderKind, d.ctx.Params); err != nil {
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

// restoreCBDDecoder rebuilds a cbdDecoder from a stream written by Save,
// re-deriving ctx from the persisted Params rather than replaying
// addParityRows (the persisted rows already include whatever parity rows
// newCBDDecoder would have added, plus every row received before suspension).
func restoreCBDDecoder(r io.Reader, p *Params) (*cbdDecoder, error) {
	ctx, err := Create(p, nil)
	if err != nil {
		return nil, err
	}
	d := &cbdDecoder{
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
