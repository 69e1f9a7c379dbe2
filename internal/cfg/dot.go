package cfg

import (
	"fmt"
	"io"

	"cflat/internal/ir"
)

// WriteDOT renders one or more function graphs as a Graphviz digraph, one
// cluster per function with a box node per block.
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
			for i, instr := range b.Instructions {
				sep := ""
				if i+1 < len(b.Instructions) {
					sep = " +"
				}
				if _, err := fmt.Fprintf(w, "        \"%s\\l\"%s\n", ir.FormatInstruction(instr), sep); err != nil {
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
