// Command sncsim is the external driver/simulator spec.md §1 names as a
// collaborator outside the coded-stream engine's core: it wires package snc
// to a file system and to loopback network topologies, but holds none of
// the engine's own algorithms. Grounded on swarna1101-RLNC-demo/main.go's
// flag-driven simulate/compare/multihop entry points, generalized from a
// single flat main() onto cobra subcommands per SPEC_FULL.md §1.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xinyu-esg/sparsenc-sub000/snc"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:   "sncsim",
		Short: "sparse network coding encode/decode/recode/simulate driver",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: info, debug, or trace")

	root.AddCommand(newEncodeCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newRecodeHopCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newCompareRSCmd())

	cobra.OnInitialize(func() {
		switch logLevel {
		case "debug":
			snc.SetLogLevel(snc.LogDebug)
		case "trace":
			snc.SetLogLevel(snc.LogTrace)
		default:
			snc.SetLogLevel(snc.LogInfo)
		}
	})

	if err := root.Execute(); err != nil {
		zap.L().Sugar().Errorf("sncsim: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
