package ir

// Uses returns pointers to every variable reference read by the instruction.
// The pointers alias the instruction's operands, so callers may rewrite the
// referenced variables in place.
func (instr *Instruction) Uses() []*Var {
	var uses []*Var
	appendVar := func(v *Value) {
		if v.Kind == ValueVar {
			uses = append(uses, &v.Var)
		}
	}

	switch instr.Opcode {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpAnd, OpOr, OpShl, OpShr, OpXor,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe,
		OpGetArrayElementPtr, OpGetStructMemberPtr:
		appendVar(&instr.Binary.Left)
		appendVar(&instr.Binary.Right)
	case OpAssign:
		appendVar(&instr.Assign.Value)
	case OpBr, OpBrCond:
		if instr.Branch.HasCond {
			appendVar(&instr.Branch.Cond)
		}
	case OpCall:
		appendVar(&instr.Call.Function)
		for i := range instr.Call.Args {
			appendVar(&instr.Call.Args[i])
		}
	case OpRet:
		if instr.Ret.HasValue {
			appendVar(&instr.Ret.Value)
		}
	case OpStore:
		appendVar(&instr.Store.Value)
		appendVar(&instr.Store.Ptr)
	case OpLoad, OpNot, OpTrunc, OpExt, OpFtoI, OpItoF, OpPtoI, OpItoP, OpBitcast:
		appendVar(&instr.Unary.Operand)
	case OpMemset:
		appendVar(&instr.Memset.Ptr)
		appendVar(&instr.Memset.Value)
		appendVar(&instr.Memset.Length)
	case OpMemcpy:
		appendVar(&instr.Memcpy.Dest)
		appendVar(&instr.Memcpy.Src)
		appendVar(&instr.Memcpy.Length)
	case OpSwitch:
		appendVar(&instr.Switch.Value)
	case OpVaStart, OpVaEnd, OpVaArg:
		appendVar(&instr.Va.ListSrc)
	case OpVaCopy:
		appendVar(&instr.Va.ListSrc)
		appendVar(&instr.Va.ListDest)
	}
	return uses
}

// Def returns a pointer to the variable defined by the instruction, or nil
// when the instruction defines nothing. The pointer aliases the instruction,
// so callers may rewrite the definition in place.
func (instr *Instruction) Def() *Var {
	switch instr.Opcode {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpAnd, OpOr, OpShl, OpShr, OpXor,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe,
		OpGetArrayElementPtr, OpGetStructMemberPtr:
		return &instr.Binary.Result
	case OpAssign:
		return &instr.Assign.Result
	case OpCall:
		return instr.Call.Result
	case OpAlloca:
		return &instr.Alloca.Result
	case OpLoad, OpNot, OpTrunc, OpExt, OpFtoI, OpItoF, OpPtoI, OpItoP, OpBitcast:
		return &instr.Unary.Result
	case OpVaArg:
		return &instr.Va.Result
	default:
		return nil
	}
}
