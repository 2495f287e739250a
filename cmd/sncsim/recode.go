package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xinyu-esg/sparsenc-sub000/snc"
)

// newRecodeHopCmd implements the "two-hop recoder" topology as a one-shot
// file-to-file pass: buffer every packet from --in into a snc.Recoder, then
// emit --count recoded packets to --out, the file-I/O analogue of the
// in-process two-hop simulate topology.
func newRecodeHopCmd() *cobra.Command {
	var pf paramFlags
	var in, out, policy string
	var bufSize, count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "recode-hop",
		Short: "buffer a packet stream and re-emit recoded packets (one relay hop)",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pf.toParams()
			if p.DataSize <= 0 {
				return fmt.Errorf("--datasize must match the value encode used")
			}
			ctx, err := snc.Create(p, nil)
			if err != nil {
				return fmt.Errorf("creating encode context for grouping: %w", err)
			}
			rc := snc.NewRecoder(ctx, recodePolicyValue(policy), bufSize, seed)

			pr, err := newPacketReaderForParams(in, p)
			if err != nil {
				return fmt.Errorf("opening packet input: %w", err)
			}
			defer pr.Close()

			received := 0
			for {
				pk, err := pr.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("reading packet %d: %w", received, err)
				}
				rc.Store(pk)
				received++
			}

			pw, err := newPacketWriter(out)
			if err != nil {
				return fmt.Errorf("opening packet output: %w", err)
			}
			defer pw.Close()

			emitted := 0
			for i := 0; i < count; i++ {
				out, err := rc.Recode()
				if err != nil {
					break
				}
				if err := pw.Write(out); err != nil {
					return fmt.Errorf("writing recoded packet %d: %w", i, err)
				}
				emitted++
			}
			fmt.Printf("buffered %d packets, recoded and emitted %d (policy=%s)\n", received, emitted, policy)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&in, "in", "packets.bin", "packet stream input file")
	cmd.Flags().StringVar(&out, "out", "recoded.bin", "recoded packet stream output file")
	cmd.Flags().StringVar(&policy, "policy", "rand", "recode scheduling policy: triv, rand, mlpi, nurand, rand-sys, or mlpi-sys")
	cmd.Flags().IntVar(&bufSize, "buf-size", 8, "per-subgeneration FIFO capacity")
	cmd.Flags().IntVar(&count, "count", 0, "number of recoded packets to emit")
	cmd.Flags().Int64Var(&seed, "recoder-seed", 1, "recoder's own PRNG seed (independent of the encoder's)")
	return cmd
}

func recodePolicyValue(s string) snc.RecodePolicy {
	switch s {
	case "triv":
		return snc.TRIV
	case "mlpi":
		return snc.MLPI
	case "nurand":
		return snc.NURAND
	case "rand-sys":
		return snc.RAND_SYS
	case "mlpi-sys":
		return snc.MLPI_SYS
	default:
		return snc.RAND
	}
}
