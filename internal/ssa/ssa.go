// Package ssa converts control flow graphs into static single assignment
// form, following "Simple and Efficient Construction of Static Single
// Assignment Form" by Braun et al.
package ssa

import (
	"fmt"
	"strings"

	"cflat/internal/cfg"
	"cflat/internal/ir"
)

// PhiOperand names the value a phi takes when control enters through the
// given predecessor block.
type PhiOperand struct {
	Name  string
	Block cfg.BlockID
}

// Phi merges one value per predecessor into a single variable at the top
// of a block.
type Phi struct {
	Var      ir.Var
	Operands []PhiOperand
}

// Block mirrors a cfg.BasicBlock with phi nodes prepended and every
// instruction rewritten so each variable is assigned exactly once. Block
// ids are carried over from the source graph, so edges keep their meaning
// across the conversion.
type Block struct {
	ID cfg.BlockID

	Label   string
	IsEntry bool

	Phis         []Phi
	Instructions []*ir.Instruction

	FallThrough  cfg.BlockID
	Predecessors []cfg.BlockID
	Successors   []cfg.BlockID

	// Sealed blocks will gain no further predecessors; their phis can be
	// completed.
	Sealed bool

	filled bool
}

// Graph is the SSA form of a single function.
type Graph struct {
	Function *ir.FunctionDefinition
	Entry    cfg.BlockID

	// blocks in visit order.
	blocks []*Block
	byID   map[cfg.BlockID]*Block

	// LabelToBlock resolves a branch target label to its block.
	LabelToBlock map[string]cfg.BlockID
}

// Block returns the block with the given id, or nil if the id is unknown.
func (g *Graph) Block(id cfg.BlockID) *Block {
	return g.byID[id]
}

// Blocks returns the blocks in the order the conversion visited them. The
// entry block is always first.
func (g *Graph) Blocks() []*Block {
	return g.blocks
}

type converter struct {
	src *cfg.Graph
	out *Graph

	// currentDef tracks, per variable and per block, the name of the
	// latest definition.
	currentDef map[string]map[cfg.BlockID]string

	// variables maps a definition name back to its typed variable.
	variables map[string]ir.Var

	// incompletePhis maps a placeholder phi's result name to the original
	// variable it stands for, until the block seals.
	incompletePhis map[string]string

	nextVar int
}

// Convert rewrites a control flow graph into SSA form. Only blocks
// reachable from the entry are converted; the source graph is left
// untouched.
//
// An entry block that is itself a branch target seals against its
// in-graph predecessors only, so a phi placed there carries no operand
// for the function-entry path. Front ends that emit such loops should
// start the body with a dedicated entry block.
func Convert(src *cfg.Graph) *Graph {
	c := &converter{
		src: src,
		out: &Graph{
			Function:     src.Function,
			byID:         make(map[cfg.BlockID]*Block),
			LabelToBlock: make(map[string]cfg.BlockID),
		},
		currentDef:     make(map[string]map[cfg.BlockID]string),
		variables:      make(map[string]ir.Var),
		incompletePhis: make(map[string]string),
	}

	entry := c.visitBlock(src.Block(src.Entry))
	c.out.Entry = entry.ID

	for _, b := range c.out.blocks {
		if b.Label != "" {
			c.out.LabelToBlock[b.Label] = b.ID
		}
	}

	return c.out
}

func (c *converter) makeVariable(t *ir.Type) ir.Var {
	v := ir.Var{Name: fmt.Sprintf("%%%d", c.nextVar), Type: t}
	c.nextVar++
	return v
}

// writeVariable records value as the current definition of variable in
// block. Globals are never renamed, so writes to them are not tracked.
func (c *converter) writeVariable(variable ir.Var, block *Block, value ir.Var) {
	if strings.HasPrefix(variable.Name, "@") {
		return
	}

	if _, ok := c.variables[value.Name]; !ok {
		c.variables[value.Name] = value
	}

	defs, ok := c.currentDef[variable.Name]
	if !ok {
		defs = make(map[cfg.BlockID]string)
		c.currentDef[variable.Name] = defs
	}
	defs[block.ID] = value.Name
}

// readVariable resolves the definition of variable that reaches block.
// Globals and function names are always defined and read as-is.
func (c *converter) readVariable(variable ir.Var, block *Block) ir.Var {
	if !strings.HasPrefix(variable.Name, "%") {
		return variable
	}

	if defs, ok := c.currentDef[variable.Name]; ok {
		if name, ok := defs[block.ID]; ok {
			return c.variables[name]
		}
	}

	return c.readVariableRecursive(variable, block)
}

func (c *converter) readVariableRecursive(variable ir.Var, block *Block) ir.Var {
	var result ir.Var
	switch {
	case !block.Sealed:
		// The block may still gain predecessors, so place an operand-less
		// phi and complete it when the block seals.
		result = c.makeVariable(variable.Type)
		block.Phis = append(block.Phis, Phi{Var: result})
		c.incompletePhis[result.Name] = variable.Name
	case len(block.Predecessors) == 1:
		result = c.readVariable(variable, c.out.byID[block.Predecessors[0]])
	default:
		// Write the placeholder before recursing into the predecessors so
		// a loop back to this block resolves to the phi itself.
		result = c.makeVariable(variable.Type)
		c.writeVariable(variable, block, result)
		phi := Phi{Var: result}
		c.addPhiOperands(&phi, variable, block)
		block.Phis = append(block.Phis, phi)
	}
	c.writeVariable(variable, block, result)
	return result
}

func (c *converter) addPhiOperands(phi *Phi, variable ir.Var, block *Block) {
	for _, predID := range block.Predecessors {
		v := c.readVariable(variable, c.out.byID[predID])
		phi.Operands = append(phi.Operands, PhiOperand{Name: v.Name, Block: predID})
	}
}

// sealBlock marks that block will gain no more predecessors and fills in
// the operands of any phi placed while the block was unsealed.
func (c *converter) sealBlock(block *Block) {
	block.Sealed = true
	for i := 0; i < len(block.Phis); i++ {
		if len(block.Phis[i].Operands) > 0 {
			continue
		}
		phi := block.Phis[i]
		variable := ir.Var{
			Name: c.incompletePhis[phi.Var.Name],
			Type: phi.Var.Type,
		}
		// Operate on a copy: resolving operands can append phis to this
		// block and move the backing array.
		c.addPhiOperands(&phi, variable, block)
		block.Phis[i] = phi
	}
}

// fillBlock clones each instruction, rewrites its uses to the reaching
// definitions and gives its definition a fresh name.
func (c *converter) fillBlock(src *cfg.BasicBlock, block *Block) {
	// Parameters are defined on entry and keep their declared names until
	// redefined.
	if src.IsEntry {
		for _, param := range c.out.Function.Params {
			c.writeVariable(param, block, param)
		}
	}

	for _, instr := range src.Instructions {
		clone := instr.Clone()
		for _, use := range clone.Uses() {
			*use = c.readVariable(*use, block)
		}
		if def := clone.Def(); def != nil {
			v := c.makeVariable(def.Type)
			c.writeVariable(*def, block, v)
			*def = v
		}
		block.Instructions = append(block.Instructions, clone)
	}
	block.filled = true
}

func (c *converter) getOrCreateBlock(src *cfg.BasicBlock) *Block {
	if b, ok := c.out.byID[src.ID]; ok {
		return b
	}
	b := &Block{
		ID:          src.ID,
		Label:       src.Label,
		IsEntry:     src.IsEntry,
		FallThrough: cfg.NoBlockID,
	}
	c.out.byID[src.ID] = b
	c.out.blocks = append(c.out.blocks, b)
	return b
}

// visitBlock drives the conversion. A block seals once every predecessor
// has been filled and fills before its successors are visited, so reads in
// a successor always see this block's definitions.
func (c *converter) visitBlock(src *cfg.BasicBlock) *Block {
	block := c.getOrCreateBlock(src)
	if block.filled && block.Sealed {
		return block
	}

	if !block.Sealed {
		allPredecessorsFilled := true
		for _, predID := range src.Predecessors {
			pred, ok := c.out.byID[predID]
			if !ok || !pred.filled {
				allPredecessorsFilled = false
				break
			}
		}
		if allPredecessorsFilled {
			c.sealBlock(block)
		}
	}

	if !block.filled {
		c.fillBlock(src, block)
		for _, succID := range src.Successors {
			succ := c.getOrCreateBlock(c.src.Block(succID))
			block.Successors = append(block.Successors, succ.ID)
			succ.Predecessors = append(succ.Predecessors, block.ID)
		}
		for _, succID := range src.Successors {
			c.visitBlock(c.src.Block(succID))
		}
		block.FallThrough = src.FallThrough
	}

	return block
}
