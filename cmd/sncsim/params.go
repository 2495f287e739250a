package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xinyu-esg/sparsenc-sub000/snc"
)

// paramFlags binds snc.Params' fields to cobra flags shared by encode,
// decode, recode-hop, and simulate, so every subcommand agrees on the wire
// parameters a receiver needs to reproduce grouping and coefficients (spec
// §5 "any receiver given the same params reproduces ... bit-exactly").
type paramFlags struct {
	dataSize int64
	sizeP    int
	sizeB    int
	sizeG    int
	sizeC    int
	codeType string
	bpc      bool
	bnc      bool
	sys      bool
	seed     int64
	nonuni   bool
	oaOne    bool
	hdpc     bool
	aoh      int
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.dataSize, "datasize", 0, "payload size in bytes (required by every subcommand except encode, which takes it from the input file)")
	cmd.Flags().IntVar(&f.sizeP, "size-p", 1024, "symbol length in bytes")
	cmd.Flags().IntVar(&f.sizeB, "size-b", 8, "base subgeneration stride")
	cmd.Flags().IntVar(&f.sizeG, "size-g", 16, "subgeneration size")
	cmd.Flags().IntVar(&f.sizeC, "size-c", 0, "parity-check count")
	cmd.Flags().StringVar(&f.codeType, "type", "rand", "code type: rand, band, or windwrap")
	cmd.Flags().BoolVar(&f.bpc, "bpc", false, "binary precode coefficients")
	cmd.Flags().BoolVar(&f.bnc, "bnc", false, "binary network coefficients")
	cmd.Flags().BoolVar(&f.sys, "sys", false, "emit a systematic prefix")
	cmd.Flags().Int64Var(&f.seed, "seed", -1, "PRNG seed; -1 derives from the clock")
	cmd.Flags().BoolVar(&f.nonuni, "nonuniform-rand", false, "bias BAND scheduling toward edge subgenerations (requires size-b=1)")
	cmd.Flags().BoolVar(&f.oaOne, "oa-oneround", false, "use one-round inactivation instead of two-round Zlatev in the OA decoder")
	cmd.Flags().BoolVar(&f.hdpc, "precode-hdpc", false, "use the dense HDPC precode instead of the Raptor circulant code")
	cmd.Flags().IntVar(&f.aoh, "aoh", 4, "OA decoder's allowed overhead")
}

func (f *paramFlags) codeTypeValue() snc.CodeType {
	switch f.codeType {
	case "band":
		return snc.BAND
	case "windwrap":
		return snc.WINDWRAP
	default:
		return snc.RAND
	}
}

func (f *paramFlags) toParams() *snc.Params {
	return &snc.Params{
		DataSize:       f.dataSize,
		SizeP:          f.sizeP,
		SizeB:          f.sizeB,
		SizeG:          f.sizeG,
		SizeC:          f.sizeC,
		Type:           f.codeTypeValue(),
		BPC:            f.bpc,
		BNC:            f.bnc,
		Sys:            f.sys,
		Seed:           f.seed,
		NonuniformRand: f.nonuni,
		OAOneRound:     f.oaOne,
		PrecodeHDPC:    f.hdpc,
		AOH:            f.aoh,
	}
}

func decoderKindValue(s string) (snc.DecoderKind, error) {
	switch s {
	case "gg":
		return snc.GGDecoderKind, nil
	case "oa":
		return snc.OADecoderKind, nil
	case "bd":
		return snc.BDDecoderKind, nil
	case "cbd":
		return snc.CBDDecoderKind, nil
	case "pp":
		return snc.PPDecoderKind, nil
	default:
		return 0, fmt.Errorf("unknown decoder kind %q (want gg, oa, bd, cbd, or pp)", s)
	}
}
