package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cflat/internal/cfg"
	"cflat/internal/ir"
	"cflat/internal/irpack"
	"cflat/internal/ssa"
)

var dumpDot string

func init() {
	dumpCmd.Flags().StringVar(&dumpDot, "dot", "", "emit a graphviz digraph instead of IR text (cfg|ssa)")
}

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <module.irpack>",
	Short: "Print a module's IR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := irpack.Load(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		switch dumpDot {
		case "":
			return ir.WriteModule(out, m)
		case "cfg":
			graphs := make([]*cfg.Graph, len(m.Functions))
			for i, fn := range m.Functions {
				g := cfg.Build(fn)
				g.Prune()
				graphs[i] = g
			}
			return cfg.WriteDOT(out, graphs...)
		case "ssa":
			graphs := make([]*ssa.Graph, len(m.Functions))
			for i, fn := range m.Functions {
				g := cfg.Build(fn)
				g.Prune()
				graphs[i] = ssa.Convert(g)
			}
			return ssa.WriteDOT(out, graphs...)
		default:
			return fmt.Errorf("invalid --dot value %q (must be cfg or ssa)", dumpDot)
		}
	},
}
