package ssa

import (
	"strings"
	"testing"

	"cflat/internal/cfg"
	"cflat/internal/ir"
)

func buildFn(name string, ret *ir.Type, params []ir.Var, build func(b *ir.FunctionBuilder)) *ir.FunctionDefinition {
	paramTypes := make([]*ir.Type, len(params))
	for i, p := range params {
		paramTypes[i] = p.Type
	}
	fn := &ir.FunctionDefinition{
		Name:   name,
		Type:   ir.FunctionOf(ret, paramTypes, false),
		Params: params,
	}
	b := ir.NewFunctionBuilder()
	build(b)
	b.Finalize(fn)
	return fn
}

func intVar(name string) ir.Value {
	return ir.VarValue(ir.Var{Name: name, Type: ir.I32})
}

func intConst(v int64) ir.Value {
	return ir.ConstValue(ir.IntConst(ir.I32, v))
}

func convert(fn *ir.FunctionDefinition) *Graph {
	g := cfg.Build(fn)
	g.Prune()
	return Convert(g)
}

// defNames collects every name defined in the graph, by an instruction or
// by a phi node.
func defNames(t *testing.T, g *Graph) []string {
	t.Helper()
	var names []string
	for _, b := range g.Blocks() {
		for i := range b.Phis {
			names = append(names, b.Phis[i].Var.Name)
		}
		for _, instr := range b.Instructions {
			if def := instr.Def(); def != nil {
				names = append(names, def.Name)
			}
		}
	}
	return names
}

func requireSingleAssignment(t *testing.T, g *Graph) {
	t.Helper()
	seen := make(map[string]bool)
	for _, name := range defNames(t, g) {
		if seen[name] {
			t.Fatalf("%s is defined more than once", name)
		}
		seen[name] = true
	}
}

func TestConvertStraightLine(t *testing.T) {
	fn := buildFn("sum", ir.I32, []ir.Var{
		{Name: "%a", Type: ir.I32},
		{Name: "%b", Type: ir.I32},
	}, func(b *ir.FunctionBuilder) {
		b.Add(intVar("%a"), intVar("%b"), ir.Var{Name: "%t", Type: ir.I32})
		b.Add(intVar("%t"), intConst(1), ir.Var{Name: "%t", Type: ir.I32})
		b.Ret(intVar("%t"))
	})

	g := convert(fn)
	requireSingleAssignment(t, g)

	blocks := g.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	entry := blocks[0]
	if !entry.IsEntry || entry.ID != g.Entry {
		t.Fatalf("entry block malformed: %+v", entry)
	}
	if len(entry.Phis) != 0 {
		t.Fatalf("straight line code must not have phis, got %d", len(entry.Phis))
	}

	instrs := entry.Instructions
	if len(instrs) != 3 {
		t.Fatalf("got %d instructions, want 3", len(instrs))
	}
	// Parameters keep their declared names.
	if got := instrs[0].Binary.Left.Var.Name; got != "%a" {
		t.Errorf("first add left = %s, want %%a", got)
	}
	if got := instrs[0].Binary.Right.Var.Name; got != "%b" {
		t.Errorf("first add right = %s, want %%b", got)
	}
	// The two writes to %t get distinct names and the reads follow.
	first := instrs[0].Binary.Result.Name
	second := instrs[1].Binary.Result.Name
	if first == "%t" || second == "%t" || first == second {
		t.Fatalf("redefinitions not renamed: %s, %s", first, second)
	}
	if got := instrs[1].Binary.Left.Var.Name; got != first {
		t.Errorf("second add reads %s, want %s", got, first)
	}
	if got := instrs[2].Ret.Value.Var.Name; got != second {
		t.Errorf("ret reads %s, want %s", got, second)
	}
}

func TestConvertIfElseJoinPhi(t *testing.T) {
	fn := buildFn("pick", ir.I32, []ir.Var{
		{Name: "%c", Type: ir.Bool},
	}, func(b *ir.FunctionBuilder) {
		b.BrCond(ir.VarValue(ir.Var{Name: "%c", Type: ir.Bool}), "l0")
		b.Assign(intConst(1), ir.Var{Name: "%x", Type: ir.I32})
		b.Br("l1")
		b.Assign(intConst(2), ir.Var{Name: "%x", Type: ir.I32}).Instr().Label = "l0"
		b.Ret(intVar("%x")).Instr().Label = "l1"
	})

	g := convert(fn)
	requireSingleAssignment(t, g)

	joinID, ok := g.LabelToBlock["l1"]
	if !ok {
		t.Fatal("join block not in label map")
	}
	join := g.Block(joinID)
	if len(join.Phis) != 1 {
		t.Fatalf("join block has %d phis, want 1", len(join.Phis))
	}
	phi := join.Phis[0]
	if len(phi.Operands) != len(join.Predecessors) {
		t.Fatalf("phi has %d operands for %d predecessors", len(phi.Operands), len(join.Predecessors))
	}

	// Each operand carries the arm's definition of %x.
	byBlock := make(map[cfg.BlockID]string)
	for _, op := range phi.Operands {
		byBlock[op.Block] = op.Name
	}
	for _, predID := range join.Predecessors {
		arm := g.Block(predID)
		if len(arm.Instructions) == 0 || arm.Instructions[0].Opcode != ir.OpAssign {
			t.Fatalf("predecessor %d does not start with the assign", predID)
		}
		if got := byBlock[predID]; got != arm.Instructions[0].Assign.Result.Name {
			t.Errorf("operand for block %d = %s, want %s", predID, got, arm.Instructions[0].Assign.Result.Name)
		}
	}

	if got := join.Instructions[0].Ret.Value.Var.Name; got != phi.Var.Name {
		t.Errorf("ret reads %s, want the phi %s", got, phi.Var.Name)
	}
}

func TestConvertLoopPhi(t *testing.T) {
	fn := buildFn("count", ir.I32, nil, func(b *ir.FunctionBuilder) {
		b.Assign(intConst(0), ir.Var{Name: "%i", Type: ir.I32})
		b.Ge(intVar("%i"), intConst(10), ir.Var{Name: "%c", Type: ir.Bool}).Instr().Label = "loop"
		b.BrCond(ir.VarValue(ir.Var{Name: "%c", Type: ir.Bool}), "exit")
		b.Add(intVar("%i"), intConst(1), ir.Var{Name: "%i", Type: ir.I32})
		b.Br("loop")
		b.Ret(intVar("%i")).Instr().Label = "exit"
	})

	g := convert(fn)
	requireSingleAssignment(t, g)

	headerID, ok := g.LabelToBlock["loop"]
	if !ok {
		t.Fatal("loop header not in label map")
	}
	header := g.Block(headerID)
	if !header.Sealed {
		t.Fatal("loop header was never sealed")
	}
	if len(header.Phis) != 1 {
		t.Fatalf("loop header has %d phis, want 1", len(header.Phis))
	}
	phi := header.Phis[0]
	if len(phi.Operands) != len(header.Predecessors) {
		t.Fatalf("phi has %d operands for %d predecessors", len(phi.Operands), len(header.Predecessors))
	}

	// The comparison in the header reads the phi, not either definition.
	if got := header.Instructions[0].Binary.Left.Var.Name; got != phi.Var.Name {
		t.Errorf("header comparison reads %s, want the phi %s", got, phi.Var.Name)
	}

	// One operand comes from the initial assignment, the other from the
	// increment on the back edge.
	entry := g.Block(g.Entry)
	initial := entry.Instructions[0].Assign.Result.Name
	byBlock := make(map[cfg.BlockID]string)
	for _, op := range phi.Operands {
		byBlock[op.Block] = op.Name
	}
	if got := byBlock[entry.ID]; got != initial {
		t.Errorf("operand from entry = %s, want %s", got, initial)
	}
	for _, predID := range header.Predecessors {
		if predID == entry.ID {
			continue
		}
		latch := g.Block(predID)
		if got := byBlock[predID]; got != latch.Instructions[0].Binary.Result.Name {
			t.Errorf("operand from back edge = %s, want %s", got, latch.Instructions[0].Binary.Result.Name)
		}
	}

	// After the loop, the exit reads the value flowing out of the header.
	exit := g.Block(g.LabelToBlock["exit"])
	if got := exit.Instructions[0].Ret.Value.Var.Name; got != phi.Var.Name {
		t.Errorf("exit reads %s, want the phi %s", got, phi.Var.Name)
	}
}

func TestConvertGlobalsKeepNames(t *testing.T) {
	ptr := ir.PointerTo(ir.I32)
	global := ir.VarValue(ir.Var{Name: "@g", Type: ptr})
	fn := buildFn("bump", ir.I32, nil, func(b *ir.FunctionBuilder) {
		b.Load(global, ir.Var{Name: "%v", Type: ir.I32})
		b.Store(global, intVar("%v"))
		b.Ret(intVar("%v"))
	})

	g := convert(fn)
	requireSingleAssignment(t, g)

	instrs := g.Block(g.Entry).Instructions
	if got := instrs[0].Unary.Operand.Var.Name; got != "@g" {
		t.Errorf("load pointer renamed to %s", got)
	}
	if got := instrs[1].Store.Ptr.Var.Name; got != "@g" {
		t.Errorf("store pointer renamed to %s", got)
	}
	if got := instrs[1].Store.Value.Var.Name; got == "%v" {
		t.Error("local read through store was not renamed")
	}
}

func TestConvertLeavesSourceIntact(t *testing.T) {
	fn := buildFn("id", ir.I32, []ir.Var{{Name: "%a", Type: ir.I32}}, func(b *ir.FunctionBuilder) {
		b.Add(intVar("%a"), intConst(1), ir.Var{Name: "%a", Type: ir.I32})
		b.Ret(intVar("%a"))
	})

	convert(fn)

	// The conversion rewrites clones; the function body keeps its names.
	if got := fn.Body[0].Binary.Result.Name; got != "%a" {
		t.Fatalf("source instruction was rewritten to %s", got)
	}
	if got := fn.Body[1].Ret.Value.Var.Name; got != "%a" {
		t.Fatalf("source ret was rewritten to %s", got)
	}
}

func TestWriteDOT(t *testing.T) {
	fn := buildFn("pick", ir.I32, []ir.Var{
		{Name: "%c", Type: ir.Bool},
	}, func(b *ir.FunctionBuilder) {
		b.BrCond(ir.VarValue(ir.Var{Name: "%c", Type: ir.Bool}), "l0")
		b.Assign(intConst(1), ir.Var{Name: "%x", Type: ir.I32})
		b.Br("l1")
		b.Assign(intConst(2), ir.Var{Name: "%x", Type: ir.I32}).Instr().Label = "l0"
		b.Ret(intVar("%x")).Instr().Label = "l1"
	})

	g := convert(fn)

	var sb strings.Builder
	if err := WriteDOT(&sb, g); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"digraph G {",
		"subgraph cluster_pick {",
		"= phi [",
		"block_0 -> block_1;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
