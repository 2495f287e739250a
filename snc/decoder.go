package snc

import "io"

// Decoder is the tagged-variant trait spec §9 Design Notes calls for: one
// interface, five concrete branches (GG/OA/BD/CBD/PP) sharing it.
type Decoder interface {
	Process(pk *Packet) error
	Finished() bool
	Overhead() int
	Cost() int
	Context() *Context
	Kind() DecoderKind
	Save(w io.Writer) error
}

// NewDecoder builds a decoder of the requested kind, sharing grouping and
// precode structure via an internally created Context (spec §6 External
// Interfaces: "create(params, decoder_kind, aoh?)").
func NewDecoder(p *Params, kind DecoderKind) (Decoder, error) {
	if kind == BDDecoderKind && p.Type != BAND {
		return nil, newErr(ErrDecodeIncompatible, "BD decoder requires BAND code, got %s", p.Type)
	}
	if kind == PPDecoderKind && p.Type != WINDWRAP {
		return nil, newErr(ErrDecodeIncompatible, "PP decoder requires WINDWRAP code, got %s", p.Type)
	}
	ctx, err := Create(p, nil)
	if err != nil {
		return nil, err
	}
	switch kind {
	case GGDecoderKind:
		return newGGDecoder(ctx), nil
	case OADecoderKind:
		return newOADecoder(ctx), nil
	case BDDecoderKind:
		return newBDDecoder(ctx), nil
	case CBDDecoderKind:
		return newCBDDecoder(ctx), nil
	case PPDecoderKind:
		return newPPDecoder(ctx), nil
	default:
		return nil, newErr(ErrInvalidParameter, "unknown decoder kind %d", kind)
	}
}

// Restore rebuilds a live, resumable Decoder from a stream written by its
// Save (spec §6 External Interfaces "restore(path) -> decoder"): unlike
// RestoreKind, which only recovers Params and the decoder-kind tag, Restore
// reconstructs the full in-progress accumulator state (unresolved rows,
// local subgeneration matrices, check-node bookkeeping) so the returned
// Decoder can keep calling Process and reach the same finished state as one
// fed the same packet stream without ever suspending.
func Restore(r io.Reader) (Decoder, error) {
	kind, p, err := RestoreKind(r)
	if err != nil {
		return nil, err
	}
	switch kind {
	case GGDecoderKind:
		return restoreGGDecoder(r, p)
	case OADecoderKind:
		return restoreOADecoder(r, p)
	case BDDecoderKind:
		return restoreBDDecoder(r, p)
	case CBDDecoderKind:
		return restoreCBDDecoder(r, p)
	case PPDecoderKind:
		return restorePPDecoder(r, p)
	default:
		return nil, newErr(ErrInvalidParameter, "unknown decoder kind %d", kind)
	}
}
