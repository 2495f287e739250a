package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xinyu-esg/sparsenc-sub000/snc"
)

func newDecodeCmd() *cobra.Command {
	var pf paramFlags
	var in, out, kind string
	var maxPackets int

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode a packet stream produced by encode (or recode-hop)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dk, err := decoderKindValue(kind)
			if err != nil {
				return err
			}
			p := pf.toParams()
			if p.DataSize <= 0 {
				return fmt.Errorf("--datasize must match the value encode used")
			}

			dec, err := snc.NewDecoder(p, dk)
			if err != nil {
				return fmt.Errorf("creating %s decoder: %w", kind, err)
			}

			pr, err := newPacketReaderForParams(in, p)
			if err != nil {
				return fmt.Errorf("opening packet input: %w", err)
			}
			defer pr.Close()

			received := 0
			for (maxPackets <= 0 || received < maxPackets) && !dec.Finished() {
				pk, err := pr.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("reading packet %d: %w", received, err)
				}
				if err := dec.Process(pk); err != nil {
					return fmt.Errorf("processing packet %d: %w", received, err)
				}
				received++
			}

			if !dec.Finished() {
				return fmt.Errorf("decoder did not finish: received %d packets, overhead %d, cost %d", received, dec.Overhead(), dec.Cost())
			}
			data := dec.Context().Recover()
			if err := writeDecodedFile(out, data); err != nil {
				return fmt.Errorf("writing recovered file: %w", err)
			}
			fmt.Printf("decoded %d bytes from %d packets (overhead=%d, cost=%d)\n", len(data), received, dec.Overhead(), dec.Cost())
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&in, "in", "packets.bin", "packet stream input file")
	cmd.Flags().StringVar(&out, "out", "", "recovered file output path (required)")
	cmd.Flags().StringVar(&kind, "kind", "gg", "decoder kind: gg, oa, bd, cbd, or pp")
	cmd.Flags().IntVar(&maxPackets, "max-packets", 0, "stop after this many packets even if not finished; 0 means unlimited")
	cmd.MarkFlagRequired("out")
	return cmd
}
