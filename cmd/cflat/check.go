package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cflat/internal/ir"
	"cflat/internal/irpack"
	"cflat/internal/observ"
	"cflat/internal/pipeline"
	"cflat/internal/target"
)

var (
	checkTimings bool
	checkJobs    int
	checkSSA     bool
	checkTarget  string

	internalErrColor = color.New(color.FgRed, color.Bold)
	okColor          = color.New(color.FgGreen)
)

func init() {
	checkCmd.Flags().BoolVar(&checkTimings, "timings", false, "print per-phase timings")
	checkCmd.Flags().IntVar(&checkJobs, "jobs", 0, "max functions processed concurrently (0 = all cores)")
	checkCmd.Flags().BoolVar(&checkSSA, "ssa", false, "also build SSA form for every function")
	checkCmd.Flags().StringVar(&checkTarget, "target", "", "path to a cflat.toml target descriptor")
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] <module.irpack>",
	Short: "Run the middle-end pipeline over a module",
	Long:  "Validate every function, build and prune its control flow graph and relinearize the body. Validation failures indicate malformed IR from the frontend and are reported as internal errors.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := irpack.Load(args[0])
		if err != nil {
			return err
		}

		if checkTarget != "" {
			cfg, arch, err := target.Load(checkTarget)
			if err != nil {
				return err
			}
			m.Arch = arch
			if cfg.Module != "" {
				m.Name = cfg.Module
			}
		}

		timer := observ.NewTimer()
		results, err := pipeline.RunModule(cmd.Context(), m, pipeline.Options{
			Jobs:  checkJobs,
			SSA:   checkSSA,
			Timer: timer,
		})
		if err != nil {
			var internal *pipeline.InternalError
			if errors.As(err, &internal) {
				errOut := cmd.ErrOrStderr()
				internalErrColor.Fprintf(errOut, "internal error: ")
				fmt.Fprintf(errOut, "function %s failed IR validation\n", internal.Function)
				for _, verr := range internal.Errors {
					fmt.Fprintf(errOut, "  %s\n", verr.Message)
					if verr.Instruction != nil {
						fmt.Fprintf(errOut, "    in: %s\n", ir.FormatInstruction(verr.Instruction))
					}
				}
			}
			return err
		}

		digest, err := irpack.HashModule(m)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		okColor.Fprintf(out, "ok")
		fmt.Fprintf(out, ": %s, %d functions, digest %s\n", m.Name, len(results), digest)
		if checkTimings {
			fmt.Fprint(out, timer.Summary())
		}
		return nil
	},
}
