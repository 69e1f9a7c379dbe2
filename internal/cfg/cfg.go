// Package cfg builds, prunes and linearizes control flow graphs over linear
// IR function bodies.
package cfg

import (
	"cflat/internal/ir"
)

// BlockID is a handle into a Graph's block arena.
type BlockID int32

// NoBlockID marks the absence of a block, e.g. no fallthrough.
const NoBlockID BlockID = -1

// BasicBlock is a maximal straight-line run of instructions with a single
// entry at the top and a single exit at the bottom. Blocks reference the
// function's instructions; they do not own them.
type BasicBlock struct {
	ID BlockID

	// Label of the first instruction in the block, if any.
	Label   string
	IsEntry bool

	// FallThrough is the block control reaches when the last instruction
	// is not br or ret.
	FallThrough BlockID

	Predecessors []BlockID
	Successors   []BlockID
	Instructions []*ir.Instruction
}

// Graph is the control flow graph of a single function. Blocks live in an
// arena indexed by BlockID; pruned slots are nil.
type Graph struct {
	Function *ir.FunctionDefinition
	Entry    BlockID

	blocks []*BasicBlock

	// LabelToBlock resolves a branch target label to its block.
	LabelToBlock map[string]BlockID
}

// Block returns the block with the given id, or nil when the id is out of
// range or the block was pruned.
func (g *Graph) Block(id BlockID) *BasicBlock {
	if id < 0 || int(id) >= len(g.blocks) {
		return nil
	}
	return g.blocks[id]
}

// Blocks returns the live blocks in id order.
func (g *Graph) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(g.blocks))
	for _, b := range g.blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// NumBlocks returns the number of live blocks.
func (g *Graph) NumBlocks() int {
	n := 0
	for _, b := range g.blocks {
		if b != nil {
			n++
		}
	}
	return n
}

func (g *Graph) newBlock() *BasicBlock {
	b := &BasicBlock{
		ID:          BlockID(len(g.blocks)),
		FallThrough: NoBlockID,
	}
	g.blocks = append(g.blocks, b)
	return b
}

func addEdge(from, to *BasicBlock) {
	from.Successors = append(from.Successors, to.ID)
	to.Predecessors = append(to.Predecessors, from.ID)
}

// splitAfter reports whether the instruction must end its basic block.
func splitAfter(instr *ir.Instruction) bool {
	switch instr.Opcode {
	case ir.OpBr, ir.OpBrCond, ir.OpRet:
		return true
	default:
		return false
	}
}

// fallsThrough reports whether control can transfer linearly to the next
// instruction. br_cond falls through on the not-taken path.
func fallsThrough(instr *ir.Instruction) bool {
	switch instr.Opcode {
	case ir.OpBr, ir.OpRet:
		return false
	default:
		return true
	}
}

func jumpTarget(instr *ir.Instruction) string {
	switch instr.Opcode {
	case ir.OpBr, ir.OpBrCond:
		return instr.Branch.Label
	default:
		return ""
	}
}

// Build converts a function's linear instruction list into a control flow
// graph. A new block begins before every labeled instruction and after
// every control transfer; the first pass records fallthrough edges only and
// a second pass resolves branch targets through the label map.
func Build(function *ir.FunctionDefinition) *Graph {
	g := &Graph{
		Function:     function,
		LabelToBlock: make(map[string]BlockID),
	}

	entry := g.newBlock()
	entry.IsEntry = true
	g.Entry = entry.ID

	current := entry
	for _, instr := range function.Body {
		if instr.Label != "" {
			// A labeled instruction starts a block. An empty current block
			// is reused instead of chaining another one, which keeps a
			// branch-over (`ret` followed by a labeled target) from
			// producing an empty block between the two.
			if len(current.Instructions) > 0 {
				next := g.newBlock()
				current.FallThrough = next.ID
				addEdge(current, next)
				current = next
			}
			current.Label = instr.Label
			g.LabelToBlock[instr.Label] = current.ID
		}

		current.Instructions = append(current.Instructions, instr)

		if splitAfter(instr) {
			next := g.newBlock()
			if fallsThrough(instr) {
				current.FallThrough = next.ID
				addEdge(current, next)
			}
			current = next
		}
	}

	// Drop a trailing empty block, unless it is the entry: an empty
	// function still has an entry block.
	if len(current.Instructions) == 0 && !current.IsEntry {
		for _, predID := range current.Predecessors {
			pred := g.blocks[predID]
			pred.Successors = removeID(pred.Successors, current.ID)
			if pred.FallThrough == current.ID {
				pred.FallThrough = NoBlockID
			}
		}
		g.blocks[current.ID] = nil
	}

	// Second pass: add edges for branch instructions. Switch targets are
	// resolved by label at lowering time and do not become graph edges.
	for _, b := range g.blocks {
		if b == nil || len(b.Instructions) == 0 {
			continue
		}
		last := b.Instructions[len(b.Instructions)-1]
		if target := jumpTarget(last); target != "" {
			if targetID, ok := g.LabelToBlock[target]; ok {
				addEdge(b, g.blocks[targetID])
			}
		}
	}

	return g
}

func removeID(ids []BlockID, id BlockID) []BlockID {
	for i, v := range ids {
		if v == id {
			ids[i] = ids[len(ids)-1]
			return ids[:len(ids)-1]
		}
	}
	return ids
}

// Prune removes blocks that are unreachable from the entry: any non-entry
// block with zero predecessors, repeated to a fixed point since a removal
// may orphan the removed block's successors.
func (g *Graph) Prune() {
	for {
		removed := false
		for _, b := range g.blocks {
			if b == nil || b.IsEntry || len(b.Predecessors) > 0 {
				continue
			}
			for _, succID := range b.Successors {
				if succ := g.blocks[succID]; succ != nil {
					succ.Predecessors = removeID(succ.Predecessors, b.ID)
				}
			}
			if b.Label != "" {
				delete(g.LabelToBlock, b.Label)
			}
			g.blocks[b.ID] = nil
			removed = true
		}
		if !removed {
			return
		}
	}
}

// Linearize flattens the graph back into a linear instruction list using an
// iterative depth first traversal from the entry. A block's fallthrough
// successor is pushed last so it is emitted immediately after the block;
// a block whose fallthrough predecessor has not been emitted yet waits
// behind that predecessor so the pair comes out adjacent.
func (g *Graph) Linearize() []*ir.Instruction {
	var instructions []*ir.Instruction

	emitted := make(map[BlockID]bool, len(g.blocks))
	stack := []BlockID{g.Entry}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		b := g.blocks[id]
		if b == nil || emitted[id] {
			continue
		}

		// Fallthrough into this block is implicit in the linear form, so
		// the block must directly follow that predecessor. Re-queue the
		// block beneath that predecessor: deferral alone would lose both
		// when the predecessor is reachable only through this block (a
		// branch over a body that falls through into its labeled header).
		// At most one block falls through into b, and fallthrough chains
		// follow the original linear order, so the climb terminates.
		if pred := pendingFallThroughPred(g, b, emitted); pred != NoBlockID {
			stack = append(stack, id, pred)
			continue
		}

		emitted[id] = true
		instructions = append(instructions, b.Instructions...)

		fallThrough := b.FallThrough
		for _, succID := range b.Successors {
			if succID != fallThrough && !emitted[succID] {
				stack = append(stack, succID)
			}
		}
		if fallThrough != NoBlockID && !emitted[fallThrough] {
			stack = append(stack, fallThrough)
		}
	}

	return instructions
}

func pendingFallThroughPred(g *Graph, b *BasicBlock, emitted map[BlockID]bool) BlockID {
	for _, predID := range b.Predecessors {
		pred := g.blocks[predID]
		if pred != nil && pred.FallThrough == b.ID && !emitted[predID] {
			return predID
		}
	}
	return NoBlockID
}
