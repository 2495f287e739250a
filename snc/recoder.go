package snc

import (
	"github.com/xinyu-esg/sparsenc-sub000/gf"
	"github.com/xinyu-esg/sparsenc-sub000/rng"
)

// RecodePolicy selects how a Recoder picks and combines buffered packets
// into the next outgoing packet (spec §4.K).
type RecodePolicy int

const (
	// TRIV forwards the oldest buffered packet verbatim: no recombination,
	// used as a transparent-relay baseline.
	TRIV RecodePolicy = iota
	// RAND linearly recombines every packet currently buffered for a
	// uniformly random subgeneration.
	RAND
	// MLPI ("most linearly independent") recombines the subgeneration
	// currently holding the most buffered packets, on the heuristic that a
	// fuller buffer is least likely to produce a redundant combination.
	MLPI
	// NURAND biases subgeneration selection the same way Context's encode
	// scheduling does: edge subgenerations get more weight.
	NURAND
	// RAND_SYS is RAND, but first forwards not-yet-forwarded buffered
	// systematic packets in increasing ucid order.
	RAND_SYS
	// MLPI_SYS is MLPI with the same systematic interleaving as RAND_SYS.
	MLPI_SYS
)

// recodeBuffer is a fixed-capacity FIFO of packets buffered for one
// subgeneration: oldest packet is evicted once capacity is exceeded (spec
// §4.K "per-subgeneration FIFO buffer").
type recodeBuffer struct {
	capacity int
	packets  []*Packet
}

func newRecodeBuffer(capacity int) *recodeBuffer {
	return &recodeBuffer{capacity: capacity, packets: make([]*Packet, 0, capacity)}
}

func (b *recodeBuffer) push(pk *Packet) {
	b.packets = append(b.packets, pk)
	if len(b.packets) > b.capacity {
		b.packets = b.packets[1:]
	}
}

// Recoder is an intermediate network node (spec §4.K): it buffers arriving
// packets per subgeneration and, on demand, emits a new packet recombined
// from a buffer rather than merely forwarding what it received. Grounded on
// swarna1101-RLNC-demo/main.go's Peer.forward relay loop, generalized from
// single-hop flooding to scheduled per-subgeneration recombination.
type Recoder struct {
	ctx    *Context
	f      *gf.Field
	p      *Params
	policy RecodePolicy
	r      *rng.Rand

	bufs   []*recodeBuffer
	sysBuf *recodeBuffer

	sysForwarded int32 // next systematic ucid eligible for RAND_SYS/MLPI_SYS forwarding
}

// NewRecoder builds a Recoder sharing ctx's grouping (Genes/Meta) but owning
// its own seeded PRNG, independent of the encoder's or any decoder's, per
// spec §5 ("no component shares PRNG state across roles").
func NewRecoder(ctx *Context, policy RecodePolicy, bufCapacity int, seed int64) *Recoder {
	r, _ := rng.NewRand(seed)
	bufs := make([]*recodeBuffer, ctx.Meta.Gnum)
	for g := range bufs {
		bufs[g] = newRecodeBuffer(bufCapacity)
	}
	return &Recoder{
		ctx:    ctx,
		f:      gf.Shared(),
		p:      ctx.Params,
		policy: policy,
		r:      r,
		bufs:   bufs,
		sysBuf: newRecodeBuffer(bufCapacity),
	}
}

// Store buffers an arriving packet for later recombination.
func (rc *Recoder) Store(pk *Packet) {
	if pk.IsSystematic() {
		rc.sysBuf.push(pk.Clone())
		return
	}
	rc.bufs[pk.GID].push(pk.Clone())
}

// Recode produces the next outgoing packet per the configured policy, or
// ErrExhausted if the recoder has no buffered data to produce one from
// (spec.md: "recoder asked to produce a packet with no buffered data").
func (rc *Recoder) Recode() (*Packet, error) {
	var pk *Packet
	switch rc.policy {
	case TRIV:
		pk = rc.recodeTriv()
	case RAND:
		pk = rc.combine(rc.pickUniform())
	case MLPI:
		pk = rc.combine(rc.pickFullest())
	case NURAND:
		pk = rc.combine(rc.pickNonuniform())
	case RAND_SYS:
		if pk = rc.tryForwardSystematic(); pk == nil {
			pk = rc.combine(rc.pickUniform())
		}
	case MLPI_SYS:
		if pk = rc.tryForwardSystematic(); pk == nil {
			pk = rc.combine(rc.pickFullest())
		}
	}
	if pk == nil {
		return nil, newErr(ErrExhausted, "recoder has no buffered data to produce a packet from")
	}
	return pk, nil
}

func (rc *Recoder) recodeTriv() *Packet {
	if len(rc.sysBuf.packets) > 0 {
		return rc.sysBuf.packets[0].Clone()
	}
	for _, buf := range rc.bufs {
		if len(buf.packets) > 0 {
			return buf.packets[0].Clone()
		}
	}
	return nil
}

// tryForwardSystematic forwards the lowest not-yet-forwarded buffered
// systematic ucid, resolving spec §9's open question about systematic
// interaction with recoding: forwarding is monotone in ucid order so a
// downstream decoder's systematic prefix check (spec §3) still terminates.
func (rc *Recoder) tryForwardSystematic() *Packet {
	best := -1
	for i, pk := range rc.sysBuf.packets {
		if pk.UCID < rc.sysForwarded {
			continue
		}
		if best < 0 || pk.UCID < rc.sysBuf.packets[best].UCID {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	pk := rc.sysBuf.packets[best]
	rc.sysForwarded = pk.UCID + 1
	rc.sysBuf.packets = append(rc.sysBuf.packets[:best], rc.sysBuf.packets[best+1:]...)
	return pk
}

func (rc *Recoder) pickUniform() int {
	nonempty := rc.nonemptyGens()
	if len(nonempty) == 0 {
		return -1
	}
	return nonempty[rc.r.Intn(len(nonempty))]
}

func (rc *Recoder) pickFullest() int {
	best, bestLen := -1, -1
	for g, buf := range rc.bufs {
		if len(buf.packets) > bestLen {
			best, bestLen = g, len(buf.packets)
		}
	}
	if bestLen <= 0 {
		return -1
	}
	return best
}

// pickNonuniform mirrors Context.scheduleNonuniformBand's edge-weighting,
// restricted to currently non-empty buffers.
func (rc *Recoder) pickNonuniform() int {
	nonempty := rc.nonemptyGens()
	if len(nonempty) == 0 {
		return -1
	}
	gnum := rc.ctx.Meta.Gnum
	weight := func(g int) int {
		if g == 0 || g == gnum-1 {
			return rc.p.SizeG + 1
		}
		return 2
	}
	total := 0
	for _, g := range nonempty {
		total += weight(g)
	}
	pick := rc.r.Intn(total)
	for _, g := range nonempty {
		w := weight(g)
		if pick < w {
			return g
		}
		pick -= w
	}
	return nonempty[len(nonempty)-1]
}

func (rc *Recoder) nonemptyGens() []int {
	var out []int
	for g, buf := range rc.bufs {
		if len(buf.packets) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// combine recombines every packet currently buffered for subgeneration gid
// into one new coded packet: a random linear combination over GF(256) (or
// GF(2) under BNC) that preserves every innovation the buffer holds, per
// spec §4.K's recoding equation. Buffered systematic packets whose ucid
// falls inside the subgeneration's pktid[] carry innovation for this
// subgeneration too (spec.md: "each systematic packet whose ucid appears
// in the subgeneration's pktid[] is combined into out at its relative
// index"), so they are folded in at their relative index alongside the
// coded buffer, not just emitted standalone by tryForwardSystematic.
func (rc *Recoder) combine(gid int) *Packet {
	if gid < 0 {
		return nil
	}
	buf := rc.bufs[gid]
	pktID := rc.ctx.Genes[gid].PktID
	sizeG := len(pktID)
	out := NewPacket(rc.p)
	out.GID = int32(gid)
	out.UCID = -1

	for _, pk := range buf.packets {
		var coeff byte
		if rc.p.BNC {
			coeff = rc.r.Bit()
		} else {
			coeff = rc.r.Byte()
		}
		if coeff == 0 {
			continue
		}
		for j := 0; j < sizeG; j++ {
			c := rc.f.Mul(coeff, pk.Coefficient(rc.p, j))
			if c == 0 {
				continue
			}
			cur := out.Coefficient(rc.p, j)
			out.SetCoefficient(rc.p, j, cur^c)
		}
		rc.f.RegionMultiplyAdd(out.Syms, pk.Syms, coeff, rc.p.SizeP)
	}

	for _, pk := range rc.sysBuf.packets {
		idx := indexOfID(pktID, int(pk.UCID))
		if idx < 0 {
			continue
		}
		var coeff byte
		if rc.p.BNC {
			coeff = rc.r.Bit()
		} else {
			coeff = rc.r.Byte()
		}
		if coeff == 0 {
			continue
		}
		cur := out.Coefficient(rc.p, idx)
		out.SetCoefficient(rc.p, idx, cur^coeff)
		rc.f.RegionMultiplyAdd(out.Syms, pk.Syms, coeff, rc.p.SizeP)
	}
	return out
}

func indexOfID(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
