package snc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildEncodedStream returns n coded packets from a fresh encode context
// over ggParams(), used to feed a Recoder in tests.
func buildEncodedStream(t *testing.T, n int) (*Context, []*Packet) {
	t.Helper()
	p := ggParams()
	data := makeSourceData(t, int(p.DataSize))
	ctx, err := Create(&p, data)
	require.NoError(t, err)
	pkts := make([]*Packet, n)
	for i := range pkts {
		pkts[i] = ctx.Generate()
	}
	return ctx, pkts
}

func TestRecoderTrivForwardsBufferedPacketVerbatim(t *testing.T) {
	_, pkts := buildEncodedStream(t, 5)
	p := ggParams()
	rc := NewRecoder(&Context{Params: &p, Meta: Metainfo{Gnum: 3}, Genes: make([]Gene, 3)}, TRIV, 4, 7)
	rc.Store(pkts[0])
	out, err := rc.Recode()
	require.NoError(t, err)
	require.Equal(t, pkts[0].GID, out.GID)
	require.Equal(t, pkts[0].Syms, out.Syms)
}

func TestRecoderRandCombinationStaysInSpan(t *testing.T) {
	ctx, pkts := buildEncodedStream(t, 20)
	rc := NewRecoder(ctx, RAND, 8, 11)
	for _, pk := range pkts {
		rc.Store(pk)
	}
	out, err := rc.Recode()
	require.NoError(t, err)
	require.False(t, out.IsSystematic())

	// A recombination must itself decode consistently with the source
	// symbols it was built from: replaying its own coefficients against
	// the known pp rows must reproduce its own Syms.
	f := ctx.f
	want := make([]byte, ctx.Params.SizeP)
	gene := ctx.Genes[out.GID]
	for j, pktIdx := range gene.PktID {
		c := out.Coefficient(ctx.Params, j)
		if c == 0 {
			continue
		}
		f.RegionMultiplyAdd(want, ctx.Packet(pktIdx), c, ctx.Params.SizeP)
	}
	require.Equal(t, want, out.Syms)
}

func TestRecoderRandSysForwardsSystematicMonotonically(t *testing.T) {
	p := ggParams()
	p.Sys = true
	data := makeSourceData(t, int(p.DataSize))
	ctx, err := Create(&p, data)
	require.NoError(t, err)

	rc := NewRecoder(ctx, RAND_SYS, 16, 13)
	for i := 0; i < ctx.Meta.Snum; i++ {
		rc.Store(ctx.Generate())
	}

	var forwarded []int32
	for i := 0; i < ctx.Meta.Snum; i++ {
		out, err := rc.Recode()
		require.NoError(t, err)
		require.True(t, out.IsSystematic())
		forwarded = append(forwarded, out.UCID)
	}
	for i, ucid := range forwarded {
		require.Equal(t, int32(i), ucid)
	}
}
