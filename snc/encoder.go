package snc

import (
	"github.com/xinyu-esg/sparsenc-sub000/bipartite"
	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/rng"
)

// Context is the encode context of spec §4.C: it owns pp, gene, and graph
// exclusively (spec §3 Lifecycles) and is not safe for concurrent use (spec
// §5).
type Context struct {
	Params *Params
	Meta   Metainfo
	Genes  []Gene
	Graph  *bipartite.Graph

	pp []([]byte)
	r  *rng.Rand
	f  *gf.Field

	sysCount int // how many systematic packets have been emitted
}

// Create builds an encode context per spec §4.C step 1-6. If buf is nil, pp
// is allocated but left zeroed — used by decoders, which build a Context to
// share grouping/precode logic without holding source data.
func Create(p *Params, buf []byte) (*Context, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := seedRNG(p)
	meta := deriveMetainfo(p)
	genes := buildGenerations(p, meta, r)

	ctx := &Context{
		Params: p,
		Meta:   meta,
		Genes:  genes,
		pp:     make([][]byte, meta.Numpp),
		r:      r,
		f:      gf.Shared(),
	}

	if meta.Cnum > 0 {
		if p.PrecodeHDPC {
			ctx.Graph = bipartite.NewDenseGraph(meta.Snum, meta.Cnum, p.BPC, r)
		} else {
			ctx.Graph = bipartite.NewRaptorGraph(meta.Snum, meta.Cnum, p.BPC, r)
		}
	}

	for i := 0; i < meta.Snum; i++ {
		ctx.pp[i] = make([]byte, p.SizeP)
	}
	for i := meta.Snum; i < meta.Numpp; i++ {
		ctx.pp[i] = make([]byte, p.SizeP)
	}

	if buf != nil {
		if err := ctx.loadSource(buf); err != nil {
			return nil, err
		}
	}

	log().Debug("encode context created")
	return ctx, nil
}

func (ctx *Context) loadSource(buf []byte) error {
	p := ctx.Params
	for i := 0; i < ctx.Meta.Snum; i++ {
		start := i * p.SizeP
		end := start + p.SizeP
		if start >= len(buf) {
			continue // zero-padded row, already zeroed on alloc
		}
		if end > len(buf) {
			end = len(buf)
		}
		copy(ctx.pp[i], buf[start:end])
	}
	if ctx.Meta.Cnum > 0 && ctx.Graph != nil {
		ctx.Graph.ApplyParity(ctx.pp, p.SizeP, ctx.f)
	}
	return nil
}

// Metainfo returns the derived sizes, mirroring the original's
// snc_get_metainfo (supplemented from original_source/include/snc.h; spec
// §4.C Design Notes addition).
func (ctx *Context) Metainfo() Metainfo { return ctx.Meta }

// Packet returns the underlying source/parity symbol at index i — used by
// decoders that assemble a Context purely for its grouping/precode
// structure and then fill pp themselves as symbols are recovered.
func (ctx *Context) Packet(i int) []byte { return ctx.pp[i] }

// SetPacket overwrites source/parity symbol i (decoder recovery path).
func (ctx *Context) SetPacket(i int, data []byte) { copy(ctx.pp[i], data) }

// Generate synthesizes the next coded (or, during the systematic prefix,
// uncoded) packet per spec §4.C step "Packet synthesis".
func (ctx *Context) Generate() *Packet {
	p := ctx.Params
	pk := NewPacket(p)

	if p.Sys && ctx.sysCount < ctx.Meta.Snum {
		pk.GID = -1
		pk.UCID = int32(ctx.sysCount)
		copy(pk.Syms, ctx.pp[ctx.sysCount])
		ctx.sysCount++
		return pk
	}

	gid := ctx.scheduleGeneration()
	gene := ctx.Genes[gid]
	for i, pktIdx := range gene.PktID {
		var c byte
		if p.BNC {
			c = ctx.r.Bit()
			pk.SetCoefficient(p, i, c)
		} else {
			c = ctx.r.Byte()
			pk.SetCoefficient(p, i, c)
		}
		ctx.f.RegionMultiplyAdd(pk.Syms, ctx.pp[pktIdx], c, p.SizeP)
	}
	pk.GID = int32(gid)
	pk.UCID = -1
	return pk
}

// scheduleGeneration picks a subgeneration id per spec §4.C Scheduling.
func (ctx *Context) scheduleGeneration() int {
	gnum := ctx.Meta.Gnum
	if gnum == 1 {
		return 0
	}
	if ctx.Params.NonuniformRand && ctx.Params.Type == BAND && ctx.Params.SizeB == 1 {
		return ctx.scheduleNonuniformBand()
	}
	return ctx.r.Intn(gnum)
}

// scheduleNonuniformBand biases the first and last subgenerations with
// weight G+1 and the rest with weight 2, to compensate their lesser overlap
// (spec §4.C Scheduling).
func (ctx *Context) scheduleNonuniformBand() int {
	gnum := ctx.Meta.Gnum
	g := ctx.Params.SizeG
	edgeWeight := g + 1
	total := 2*edgeWeight + 2*(gnum-2)
	if gnum <= 2 {
		total = edgeWeight * gnum
	}
	pick := ctx.r.Intn(total)
	if pick < edgeWeight {
		return 0
	}
	pick -= edgeWeight
	if gnum > 1 {
		if pick < edgeWeight {
			return gnum - 1
		}
		pick -= edgeWeight
	}
	if gnum <= 2 {
		return 0
	}
	return 1 + pick/2
}

// Recover concatenates the first ceil(datasize/size_p) rows of pp,
// truncating the last to datasize mod size_p bytes, per spec §4.C Recovery.
func (ctx *Context) Recover() []byte {
	p := ctx.Params
	out := make([]byte, 0, p.DataSize)
	full := int(p.DataSize / int64(p.SizeP))
	rem := int(p.DataSize % int64(p.SizeP))
	for i := 0; i < full; i++ {
		out = append(out, ctx.pp[i]...)
	}
	if rem > 0 {
		out = append(out, ctx.pp[full][:rem]...)
	}
	return out
}
