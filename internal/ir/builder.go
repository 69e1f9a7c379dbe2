package ir

// InstructionNode is an entry in a FunctionBuilder's instruction list.
type InstructionNode struct {
	Instruction Instruction
	prev        *InstructionNode
	next        *InstructionNode
}

// Instr returns the node's instruction for in-place modification.
func (n *InstructionNode) Instr() *Instruction {
	return &n.Instruction
}

// FunctionBuilder assembles a function body as a doubly linked list of
// instructions so that callers can insert at arbitrary positions. The cursor
// points at the node after which the next instruction is inserted; a nil
// cursor inserts at the beginning of the list.
type FunctionBuilder struct {
	length int
	head   *InstructionNode
	tail   *InstructionNode
	cursor *InstructionNode
}

// NewFunctionBuilder returns an empty builder with the cursor at the
// beginning.
func NewFunctionBuilder() *FunctionBuilder {
	return &FunctionBuilder{}
}

// Finalize flattens the instruction list into the function's body. The
// builder must not be reused afterwards.
func (b *FunctionBuilder) Finalize(fn *FunctionDefinition) {
	body := make([]*Instruction, 0, b.length)
	for node := b.head; node != nil; node = node.next {
		body = append(body, &node.Instruction)
	}
	fn.Body = body
}

// PositionAtBeginning moves the cursor before the first instruction.
func (b *FunctionBuilder) PositionAtBeginning() {
	b.cursor = nil
}

// PositionAtEnd moves the cursor after the last instruction.
func (b *FunctionBuilder) PositionAtEnd() {
	b.cursor = b.tail
}

// PositionBefore moves the cursor so that the next insertion precedes node.
func (b *FunctionBuilder) PositionBefore(node *InstructionNode) {
	b.cursor = node.prev
}

// PositionAfter moves the cursor so that the next insertion follows node.
func (b *FunctionBuilder) PositionAfter(node *InstructionNode) {
	b.cursor = node
}

// Position returns the current cursor node, or nil when at the beginning.
func (b *FunctionBuilder) Position() *InstructionNode {
	return b.cursor
}

// ClearAfter drops every instruction after the given node.
func (b *FunctionBuilder) ClearAfter(position *InstructionNode) {
	if position == nil {
		return
	}
	cursorRemoved := false
	for node := position.next; node != nil; node = node.next {
		if node == b.cursor {
			cursorRemoved = true
		}
		b.length--
	}
	position.next = nil
	b.tail = position
	// A cursor at or before position still points into the remaining list
	// and stays put.
	if cursorRemoved {
		b.cursor = position
	}
}

// Insert adds an instruction at the cursor and advances the cursor past it.
func (b *FunctionBuilder) Insert(instruction Instruction) *InstructionNode {
	node := &InstructionNode{Instruction: instruction}

	if b.cursor == nil {
		if b.head == nil {
			b.head = node
			b.tail = node
		} else {
			node.next = b.head
			b.head.prev = node
			b.head = node
		}
	} else {
		node.prev = b.cursor
		node.next = b.cursor.next
		if b.cursor.next != nil {
			b.cursor.next.prev = node
		} else {
			b.tail = node
		}
		b.cursor.next = node
	}

	b.length++
	b.cursor = node
	return node
}

func (b *FunctionBuilder) insertBinary(op Opcode, left, right Value, result Var) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: op,
		Binary: BinaryOp{Left: left, Right: right, Result: result},
	})
}

func (b *FunctionBuilder) insertUnary(op Opcode, operand Value, result Var) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: op,
		Unary:  UnaryOp{Operand: operand, Result: result},
	})
}

// Nop inserts a labeled no-op, typically used as a branch target.
func (b *FunctionBuilder) Nop(label string) *InstructionNode {
	return b.Insert(Instruction{Opcode: OpNop, Label: label})
}

func (b *FunctionBuilder) Assign(value Value, result Var) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpAssign,
		Assign: AssignOp{Value: value, Result: result},
	})
}

func (b *FunctionBuilder) Add(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpAdd, left, right, result)
}

func (b *FunctionBuilder) Sub(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpSub, left, right, result)
}

func (b *FunctionBuilder) Mul(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpMul, left, right, result)
}

func (b *FunctionBuilder) Div(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpDiv, left, right, result)
}

func (b *FunctionBuilder) Mod(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpMod, left, right, result)
}

func (b *FunctionBuilder) And(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpAnd, left, right, result)
}

func (b *FunctionBuilder) Or(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpOr, left, right, result)
}

func (b *FunctionBuilder) Shl(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpShl, left, right, result)
}

func (b *FunctionBuilder) Shr(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpShr, left, right, result)
}

func (b *FunctionBuilder) Xor(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpXor, left, right, result)
}

func (b *FunctionBuilder) Not(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpNot, value, result)
}

func (b *FunctionBuilder) Eq(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpEq, left, right, result)
}

func (b *FunctionBuilder) Ne(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpNe, left, right, result)
}

func (b *FunctionBuilder) Lt(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpLt, left, right, result)
}

func (b *FunctionBuilder) Le(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpLe, left, right, result)
}

func (b *FunctionBuilder) Gt(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpGt, left, right, result)
}

func (b *FunctionBuilder) Ge(left, right Value, result Var) *InstructionNode {
	return b.insertBinary(OpGe, left, right, result)
}

func (b *FunctionBuilder) Br(label string) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpBr,
		Branch: BranchOp{Label: label},
	})
}

func (b *FunctionBuilder) BrCond(cond Value, label string) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpBrCond,
		Branch: BranchOp{Label: label, HasCond: true, Cond: cond},
	})
}

func (b *FunctionBuilder) Call(function Value, args []Value, result *Var) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpCall,
		Call:   CallOp{Function: function, Args: args, Result: result},
	})
}

func (b *FunctionBuilder) Ret(value Value) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpRet,
		Ret:    RetOp{HasValue: true, Value: value},
	})
}

func (b *FunctionBuilder) RetVoid() *InstructionNode {
	return b.Insert(Instruction{Opcode: OpRet})
}

func (b *FunctionBuilder) Switch(value Value, defaultLabel string) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpSwitch,
		Switch: SwitchOp{Value: value, DefaultLabel: defaultLabel},
	})
}

func (b *FunctionBuilder) Alloca(t *Type, result Var) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpAlloca,
		Alloca: AllocaOp{Type: t, Result: result},
	})
}

func (b *FunctionBuilder) Load(ptr Value, result Var) *InstructionNode {
	return b.insertUnary(OpLoad, ptr, result)
}

func (b *FunctionBuilder) Store(ptr, value Value) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpStore,
		Store:  StoreOp{Ptr: ptr, Value: value},
	})
}

func (b *FunctionBuilder) Memcpy(dest, src, length Value) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpMemcpy,
		Memcpy: MemcpyOp{Dest: dest, Src: src, Length: length},
	})
}

func (b *FunctionBuilder) Memset(ptr, value, length Value) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpMemset,
		Memset: MemsetOp{Ptr: ptr, Value: value, Length: length},
	})
}

func (b *FunctionBuilder) GetArrayElementPtr(ptr, index Value, result Var) *InstructionNode {
	return b.insertBinary(OpGetArrayElementPtr, ptr, index, result)
}

// GetStructMemberPtr takes the field index as a plain int and wraps it in an
// i32 constant operand.
func (b *FunctionBuilder) GetStructMemberPtr(ptr Value, index int, result Var) *InstructionNode {
	return b.insertBinary(OpGetStructMemberPtr, ptr, ConstValue(IntConst(I32, int64(index))), result)
}

func (b *FunctionBuilder) Trunc(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpTrunc, value, result)
}

func (b *FunctionBuilder) Ext(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpExt, value, result)
}

func (b *FunctionBuilder) FtoI(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpFtoI, value, result)
}

func (b *FunctionBuilder) ItoF(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpItoF, value, result)
}

func (b *FunctionBuilder) PtoI(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpPtoI, value, result)
}

func (b *FunctionBuilder) ItoP(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpItoP, value, result)
}

func (b *FunctionBuilder) Bitcast(value Value, result Var) *InstructionNode {
	return b.insertUnary(OpBitcast, value, result)
}

func (b *FunctionBuilder) VaStart(list Value) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpVaStart,
		Va:     VaOp{ListSrc: list},
	})
}

func (b *FunctionBuilder) VaEnd(list Value) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpVaEnd,
		Va:     VaOp{ListSrc: list},
	})
}

func (b *FunctionBuilder) VaArg(list Value, t *Type, result Var) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpVaArg,
		Va:     VaOp{ListSrc: list, Result: result, Type: t},
	})
}

func (b *FunctionBuilder) VaCopy(src, dest Value) *InstructionNode {
	return b.Insert(Instruction{
		Opcode: OpVaCopy,
		Va:     VaOp{ListSrc: src, ListDest: dest},
	})
}
