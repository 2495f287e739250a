package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xinyu-esg/sparsenc-sub000/snc"
)

func newEncodeCmd() *cobra.Command {
	var pf paramFlags
	var in, out string
	var count int

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode a source file into a stream of coded packets",
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := loadSourceFile(in)
			if err != nil {
				return fmt.Errorf("reading source file: %w", err)
			}
			p := pf.toParams()
			p.DataSize = int64(len(buf))

			ctx, err := snc.Create(p, buf)
			if err != nil {
				return fmt.Errorf("creating encode context: %w", err)
			}

			pw, err := newPacketWriter(out)
			if err != nil {
				return fmt.Errorf("opening packet output: %w", err)
			}
			defer pw.Close()

			if count <= 0 {
				count = ctx.Meta.Snum + ctx.Meta.Cnum
				if p.Type != snc.BAND {
					count = int(float64(count) * 1.25)
				}
			}
			for i := 0; i < count; i++ {
				if err := pw.Write(ctx.Generate()); err != nil {
					return fmt.Errorf("writing packet %d: %w", i, err)
				}
			}
			fmt.Printf("encoded %s (%d bytes) into %d packets, seed=%d\n", in, len(buf), count, p.Seed)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&in, "in", "", "source file to encode (required)")
	cmd.Flags().StringVar(&out, "out", "packets.bin", "packet stream output file")
	cmd.Flags().IntVar(&count, "count", 0, "number of packets to emit; 0 picks a reasonable default from snum/cnum")
	cmd.MarkFlagRequired("in")
	return cmd
}
