package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cflat/internal/ir"
)

var archCmd = &cobra.Command{
	Use:   "arch [name]",
	Short: "List supported target architectures",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			arch := ir.LookupArch(args[0])
			if arch == nil {
				return fmt.Errorf("unknown architecture %q", args[0])
			}
			fmt.Fprintf(out, "%s (%s)\n", arch.Name, arch.AltName)
			fmt.Fprintf(out, "  long:     %s\n", ir.FormatType(arch.SLong))
			fmt.Fprintf(out, "  pointer:  %s\n", ir.FormatType(arch.PtrIntType))
			fmt.Fprintf(out, "  align:    i8=%d i16=%d i32=%d i64=%d f32=%d f64=%d\n",
				arch.Int8Alignment, arch.Int16Alignment, arch.Int32Alignment,
				arch.Int64Alignment, arch.F32Alignment, arch.F64Alignment)
			return nil
		}

		for _, arch := range ir.Arches {
			fmt.Fprintf(out, "%-8s (%s)\n", arch.Name, arch.AltName)
		}
		return nil
	},
}
