package ssa

import (
	"fmt"
	"io"
	"strings"

	"cflat/internal/ir"
)

// FormatPhi renders a phi node, e.g. "%3 = phi [%1, block_0], [%2, block_2]".
func FormatPhi(phi *Phi) string {
	var sb strings.Builder
	sb.WriteString(phi.Var.Name)
	sb.WriteString(" = phi ")
	for i, operand := range phi.Operands {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "[%s, block_%d]", operand.Name, operand.Block)
	}
	return sb.String()
}

// WriteDOT renders one or more SSA graphs as a Graphviz digraph, one
// cluster per function with a box node per block. Phi nodes are listed
// ahead of the block's instructions.
func WriteDOT(w io.Writer, graphs ...*Graph) error {
	if _, err := fmt.Fprintln(w, "digraph G {"); err != nil {
		return err
	}
	for _, g := range graphs {
		name := g.Function.Name
		if _, err := fmt.Fprintf(w, "  subgraph cluster_%s {\n    label=\"%s\";\n", name, name); err != nil {
			return err
		}
		for _, b := range g.Blocks() {
			if _, err := fmt.Fprintf(w, "    block_%d [\n      shape=box\n      label=\n", b.ID); err != nil {
				return err
			}
			lines := make([]string, 0, len(b.Phis)+len(b.Instructions))
			for i := range b.Phis {
				lines = append(lines, FormatPhi(&b.Phis[i]))
			}
			for _, instr := range b.Instructions {
				lines = append(lines, ir.FormatInstruction(instr))
			}
			for i, line := range lines {
				sep := ""
				if i+1 < len(lines) {
					sep = " +"
				}
				if _, err := fmt.Fprintf(w, "        \"%s\\l\"%s\n", line, sep); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w, "    ];"); err != nil {
				return err
			}
			for _, succID := range b.Successors {
				if _, err := fmt.Fprintf(w, "    block_%d -> block_%d;\n", b.ID, succID); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w, "  }"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
