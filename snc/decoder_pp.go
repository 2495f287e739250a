package snc

import (
	"io"

	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/pivot"
)

// ppDecoder implements the perpetual/wrap-around decoder (spec §4.J):
// WINDWRAP's circular band means a packet's coefficient support can wrap
// past the last id back to the first, so there is no fixed "finished
// receiving" boundary to pivot against up front. PP instead runs three
// stages: a per-packet forward stage that incrementally folds each arriving
// row into a running upper-triangular system (each row lands on the
// leftmost column it still has a non-zero in, so earlier-established pivot
// rows are never touched again); a final-forward check that the running
// system has reached full rank; and a final-backward substitution that
// resolves every symbol once it has. Grounded on original_source/src/
// decoderPP.c's forward/backward passes, re-architected per spec §9 Design
// Notes onto package pivot's BackSubstitute instead of a bespoke band
// solver — the running system is already upper-triangular by construction,
// so only the backward half of Gaussian elimination remains to do.
type ppDecoder struct {
	ctx *Context
	f   *gf.Field
	p   *Params

	n          int
	pivotCoeff [][]byte // n-length, nil until column col has a pivot row
	pivotMsg   [][]byte
	rank       int
	solved     bool

	known         []bool
	decodedSource int
	packetsIn     int
	cost          int
}

func newPPDecoder(ctx *Context) *ppDecoder {
	d := &ppDecoder{
		ctx:        ctx,
		f:          gf.Shared(),
		p:          ctx.Params,
		n:          ctx.Meta.Numpp,
		pivotCoeff: make([][]byte, ctx.Meta.Numpp),
		pivotMsg:   make([][]byte, ctx.Meta.Numpp),
		known:      make([]bool, ctx.Meta.Numpp),
	}
	if ctx.Graph != nil {
		snum := ctx.Meta.Snum
		for i, edges := range ctx.Graph.LeftOfRight {
			row := make([]byte, d.n)
			for _, e := range edges {
				row[e.Node] = e.Coeff
			}
			row[snum+i] = 1
			d.reduceRow(row, make([]byte, d.p.SizeP))
		}
	}
	return d
}

func (d *ppDecoder) Kind() DecoderKind { return PPDecoderKind }
func (d *ppDecoder) Context() *Context { return d.ctx }
func (d *ppDecoder) Cost() int         { return d.cost }
func (d *ppDecoder) Overhead() int     { return d.packetsIn - d.ctx.Meta.Snum }
func (d *ppDecoder) Finished() bool    { return d.decodedSource >= d.ctx.Meta.Snum }

// reduceRow is the forward stage: it eliminates row against every
// already-established pivot column in ascending order and, on finding a
// column with no pivot row yet, plants row there and returns true.
func (d *ppDecoder) reduceRow(row, msg []byte) bool {
	for col := 0; col < d.n; col++ {
		if row[col] == 0 {
			continue
		}
		if d.pivotCoeff[col] == nil {
			d.pivotCoeff[col] = row
			d.pivotMsg[col] = msg
			d.rank++
			return true
		}
		c := d.f.Div(row[col], d.pivotCoeff[col][col])
		d.f.RegionMultiplyAdd(row, d.pivotCoeff[col], c, d.n)
		d.f.RegionMultiplyAdd(msg, d.pivotMsg[col], c, d.p.SizeP)
	}
	return false
}

func (d *ppDecoder) Process(pk *Packet) error {
	d.packetsIn++
	row := make([]byte, d.n)
	var msg []byte

	if pk.IsSystematic() {
		row[pk.UCID] = 1
		msg = append([]byte(nil), pk.Syms...)
	} else {
		gene := d.ctx.Genes[pk.GID]
		for j, id := range gene.PktID {
			row[id] = pk.Coefficient(d.p, j)
		}
		msg = append([]byte(nil), pk.Syms...)
		d.cost++
	}
	d.reduceRow(row, msg)

	if !d.solved && d.rank >= d.n {
		d.finalize()
	}
	return nil
}

// finalize runs the final-forward rank check (implicit: caller only gets
// here once rank==n) followed by the final-backward substitution that
// resolves every pivot row's column against every row above it.
func (d *ppDecoder) finalize() {
	A := pivot.NewMatrix(d.n, d.n)
	B := pivot.NewMatrix(d.n, d.p.SizeP)
	for i := 0; i < d.n; i++ {
		copy(A.Row(i), d.pivotCoeff[i])
		copy(B.Row(i), d.pivotMsg[i])
	}
	pivot.BackSubstitute(d.f, A, B, pivot.SquarePivotCols(d.n))
	d.solved = true
	for i := 0; i < d.n; i++ {
		if d.known[i] {
			continue
		}
		d.ctx.SetPacket(i, B.Row(i))
		d.known[i] = true
		if i < d.ctx.Meta.Snum {
			d.decodedSource++
		}
	}
}

// Save persists Params, every recovered symbol, and the running
// upper-triangular pivot system (not yet rank-n, or rank-n but not yet
// back-substituted), so a restored decoder resumes the forward stage
// exactly where this one left off.
func (d *ppDecoder) Save(w io.Writer) error {
	if err := saveCommon(w, PPDecoderKind, d.ctx.Params); err != nil {
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
	if err := writeInt(w, d.rank); err != nil {
		return err
	}
	if err := writeBoolsLP(w, []bool{d.solved}); err != nil {
		return err
	}
	if err := writeOptByteMatrixLP(w, d.pivotCoeff); err != nil {
		return err
	}
	return writeOptByteMatrixLP(w, d.pivotMsg)
}

// restorePPDecoder rebuilds a ppDecoder, re-deriving ctx from the persisted
// Params. newPPDecoder's own parity-row pre-reduction is skipped since the
// persisted pivotCoeff/pivotMsg already reflect it plus every row received
// before suspension.
func restorePPDecoder(r io.Reader, p *Params) (*ppDecoder, error) {
	ctx, err := Create(p, nil)
	if err != nil {
		return nil, err
	}
	d := &ppDecoder{
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
	if d.rank, err = readInt(r); err != nil {
		return nil, err
	}
	solvedFlags, err := readBoolsLP(r)
	if err != nil {
		return nil, err
	}
	d.solved = len(solvedFlags) > 0 && solvedFlags[0]
	if d.pivotCoeff, err = readOptByteMatrixLP(r); err != nil {
		return nil, err
	}
	if d.pivotMsg, err = readOptByteMatrixLP(r); err != nil {
		return nil, err
	}
	return d, nil
}
