package snc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeSourceData(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i*37 + 11)
	}
	return buf
}

// runRoundTrip drives an encode Context against a decoder of the given
// kind until either the decoder finishes or maxPackets is exhausted,
// asserting the recovered data matches the source exactly.
func runRoundTrip(t *testing.T, p Params, kind DecoderKind, maxPackets int) {
	t.Helper()
	data := makeSourceData(t, int(p.DataSize))

	encCtx, err := Create(&p, data)
	require.NoError(t, err)

	decP := p
	dec, err := NewDecoder(&decP, kind)
	require.NoError(t, err)

	sent := 0
	for sent < maxPackets && !dec.Finished() {
		pk := encCtx.Generate()
		require.NoError(t, dec.Process(pk))
		sent++
	}

	require.True(t, dec.Finished(), "decoder did not finish within %d packets", maxPackets)
	require.Equal(t, data, dec.Context().Recover())
}

func ggParams() Params {
	return Params{
		DataSize: 80,
		SizeP:    8,
		SizeB:    4,
		SizeG:    4,
		SizeC:    0,
		Type:     RAND,
		Seed:     1,
	}
}

func TestGGDecoderRoundTrip(t *testing.T) {
	runRoundTrip(t, ggParams(), GGDecoderKind, 400)
}

func TestOADecoderRoundTrip(t *testing.T) {
	runRoundTrip(t, ggParams(), OADecoderKind, 400)
}

func bandParams() Params {
	return Params{
		DataSize: 80,
		SizeP:    8,
		SizeB:    2,
		SizeG:    4,
		SizeC:    0,
		Type:     BAND,
		Seed:     2,
	}
}

func TestBDDecoderRoundTrip(t *testing.T) {
	runRoundTrip(t, bandParams(), BDDecoderKind, 400)
}

func TestCBDDecoderRoundTrip(t *testing.T) {
	runRoundTrip(t, bandParams(), CBDDecoderKind, 400)
}

func windwrapParams() Params {
	return Params{
		DataSize: 80,
		SizeP:    8,
		SizeB:    2,
		SizeG:    4,
		SizeC:    0,
		Type:     WINDWRAP,
		Seed:     3,
	}
}

func TestPPDecoderRoundTrip(t *testing.T) {
	runRoundTrip(t, windwrapParams(), PPDecoderKind, 400)
}

func TestSystematicPrefixDecodesImmediately(t *testing.T) {
	p := ggParams()
	p.Sys = true
	data := makeSourceData(t, int(p.DataSize))
	encCtx, err := Create(&p, data)
	require.NoError(t, err)

	decP := p
	dec, err := NewDecoder(&decP, GGDecoderKind)
	require.NoError(t, err)

	for i := 0; i < encCtx.Meta.Snum; i++ {
		pk := encCtx.Generate()
		require.True(t, pk.IsSystematic())
		require.NoError(t, dec.Process(pk))
	}
	require.True(t, dec.Finished())
	require.Equal(t, data, dec.Context().Recover())
}

func TestDecodeIncompatibleCodeTypeRejected(t *testing.T) {
	p := ggParams() // RAND type
	_, err := NewDecoder(&p, BDDecoderKind)
	require.Error(t, err)

	p2 := windwrapParams()
	_, err = NewDecoder(&p2, BDDecoderKind)
	require.Error(t, err)
}

// TestCBDDecoderSuspendRestoreResume mirrors spec.md's scenario 6: a CBD
// decoder is saved after processing only snum/2 packets, restored into a
// fresh decoder via Restore, and fed the remaining stream — its final
// recovered buffer must equal that of a decoder that never suspended, which
// requires Save/Restore to carry the unresolved row buffer forward, not
// just the already-decoded symbols.
func TestCBDDecoderSuspendRestoreResume(t *testing.T) {
	p := bandParams()
	data := makeSourceData(t, int(p.DataSize))
	encCtx, err := Create(&p, data)
	require.NoError(t, err)

	const total = 40
	packets := make([]*Packet, total)
	for i := range packets {
		packets[i] = encCtx.Generate()
	}

	suspendAt := encCtx.Meta.Snum / 2
	require.Greater(t, suspendAt, 0)

	decP := p
	live, err := NewDecoder(&decP, CBDDecoderKind)
	require.NoError(t, err)
	for i := 0; i < suspendAt; i++ {
		require.NoError(t, live.Process(packets[i].Clone()))
	}
	require.False(t, live.Finished(), "decoder finished before suspension point; test is not exercising mid-stream restore")

	var buf bytes.Buffer
	require.NoError(t, live.Save(&buf))

	restored, err := Restore(&buf)
	require.NoError(t, err)
	require.Equal(t, CBDDecoderKind, restored.Kind())

	for i := suspendAt; i < total && !restored.Finished(); i++ {
		require.NoError(t, restored.Process(packets[i].Clone()))
	}
	require.True(t, restored.Finished())
	require.Equal(t, data, restored.Context().Recover())

	// Cross-check against a decoder fed the identical stream without ever
	// suspending.
	unsuspendedP := p
	unsuspended, err := NewDecoder(&unsuspendedP, CBDDecoderKind)
	require.NoError(t, err)
	for i := 0; i < total && !unsuspended.Finished(); i++ {
		require.NoError(t, unsuspended.Process(packets[i].Clone()))
	}
	require.True(t, unsuspended.Finished())
	require.Equal(t, unsuspended.Context().Recover(), restored.Context().Recover())
}

func TestDecoderSavePersistsRecoveredSymbols(t *testing.T) {
	p := ggParams()
	data := makeSourceData(t, int(p.DataSize))
	encCtx, err := Create(&p, data)
	require.NoError(t, err)

	decP := p
	dec, err := NewDecoder(&decP, GGDecoderKind)
	require.NoError(t, err)
	for i := 0; i < 400 && !dec.Finished(); i++ {
		require.NoError(t, dec.Process(encCtx.Generate()))
	}
	require.True(t, dec.Finished())

	var buf bytes.Buffer
	require.NoError(t, dec.Save(&buf))

	kind, restoredParams, err := RestoreKind(&buf)
	require.NoError(t, err)
	require.Equal(t, GGDecoderKind, kind)
	require.Equal(t, p.DataSize, restoredParams.DataSize)

	restoreCtx, err := Create(restoredParams, nil)
	require.NoError(t, err)
	known := make([]bool, restoreCtx.Meta.Numpp)
	require.NoError(t, readKnownPackets(&buf, restoreCtx, known))
	require.Equal(t, data, restoreCtx.Recover())
}
