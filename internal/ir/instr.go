package ir

// Opcode enumerates IR operations.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	// Assignment
	OpAssign

	// Bitwise
	OpAnd
	OpOr
	OpShl
	OpShr
	OpXor
	OpNot

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Control flow
	OpBr
	OpBrCond
	OpCall
	OpRet
	OpSwitch

	// Memory
	OpAlloca
	OpLoad
	OpStore
	OpMemcpy
	OpMemset
	OpGetArrayElementPtr
	OpGetStructMemberPtr

	// Type conversion
	OpTrunc
	OpExt
	OpFtoI
	OpItoF
	OpPtoI
	OpItoP
	OpBitcast

	// Vararg support
	OpVaStart
	OpVaEnd
	OpVaArg
	OpVaCopy
)

var opcodeNames = [...]string{
	OpNop:                "nop",
	OpAdd:                "add",
	OpSub:                "sub",
	OpMul:                "mul",
	OpDiv:                "div",
	OpMod:                "mod",
	OpAssign:             "assign",
	OpAnd:                "and",
	OpOr:                 "or",
	OpShl:                "shl",
	OpShr:                "shr",
	OpXor:                "xor",
	OpNot:                "not",
	OpEq:                 "eq",
	OpNe:                 "ne",
	OpLt:                 "lt",
	OpLe:                 "le",
	OpGt:                 "gt",
	OpGe:                 "ge",
	OpBr:                 "br",
	OpBrCond:             "br_cond",
	OpCall:               "call",
	OpRet:                "ret",
	OpSwitch:             "switch",
	OpAlloca:             "alloca",
	OpLoad:               "load",
	OpStore:              "store",
	OpMemcpy:             "memcpy",
	OpMemset:             "memset",
	OpGetArrayElementPtr: "get_array_element_ptr",
	OpGetStructMemberPtr: "get_struct_member_ptr",
	OpTrunc:              "trunc",
	OpExt:                "ext",
	OpFtoI:               "ftoi",
	OpItoF:               "itof",
	OpPtoI:               "ptoi",
	OpItoP:               "itop",
	OpBitcast:            "bitcast",
	OpVaStart:            "va_start",
	OpVaEnd:              "va_end",
	OpVaArg:              "va_arg",
	OpVaCopy:             "va_copy",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "unknown"
}

// AssignOp is the payload of assign.
type AssignOp struct {
	Value  Value
	Result Var
}

// BinaryOp is the shared payload of every two-operand instruction that
// produces a result: arithmetic, the binary bitwise ops, comparisons, and
// get_array_element_ptr / get_struct_member_ptr.
type BinaryOp struct {
	Left   Value
	Right  Value
	Result Var
}

// UnaryOp is the shared payload of every one-operand instruction that
// produces a result: not, load, and the type conversions.
type UnaryOp struct {
	Operand Value
	Result  Var
}

// BranchOp is the payload of br and br_cond.
type BranchOp struct {
	Label   string
	HasCond bool
	Cond    Value
}

// CallOp is the payload of call. Result is nil for void calls or when the
// return value is discarded.
type CallOp struct {
	Function Value
	Args     []Value
	Result   *Var
}

// RetOp is the payload of ret.
type RetOp struct {
	HasValue bool
	Value    Value
}

// AllocaOp is the payload of alloca. Result holds a pointer to the
// allocated slot.
type AllocaOp struct {
	Type   *Type
	Result Var
}

// StoreOp is the payload of store.
type StoreOp struct {
	Ptr   Value
	Value Value
}

// MemsetOp is the payload of memset.
type MemsetOp struct {
	Ptr    Value
	Value  Value
	Length Value
}

// MemcpyOp is the payload of memcpy.
type MemcpyOp struct {
	Dest   Value
	Src    Value
	Length Value
}

// SwitchCase is one arm of a switch instruction.
type SwitchCase struct {
	Const Const
	Label string
}

// SwitchOp is the payload of switch.
type SwitchOp struct {
	Value        Value
	Cases        []SwitchCase
	DefaultLabel string
}

// VaOp is the shared payload of va_start, va_end, va_arg and va_copy.
type VaOp struct {
	ListSrc  Value
	ListDest Value // va_copy only
	Result   Var   // va_arg only
	Type     *Type // va_arg only
}

// Instruction is a single IR operation. The payload field that is populated
// depends on Opcode. A non-empty Label marks a branch target.
type Instruction struct {
	Opcode Opcode
	Label  string

	Assign AssignOp
	Binary BinaryOp
	Unary  UnaryOp
	Branch BranchOp
	Call   CallOp
	Ret    RetOp
	Alloca AllocaOp
	Store  StoreOp
	Memset MemsetOp
	Memcpy MemcpyOp
	Switch SwitchOp
	Va     VaOp
}

// Clone returns a deep copy of the instruction. Slices and the optional call
// result are copied so that the clone can be rewritten without aliasing the
// source.
func (instr *Instruction) Clone() *Instruction {
	dup := *instr
	if instr.Call.Args != nil {
		dup.Call.Args = make([]Value, len(instr.Call.Args))
		copy(dup.Call.Args, instr.Call.Args)
	}
	if instr.Call.Result != nil {
		result := *instr.Call.Result
		dup.Call.Result = &result
	}
	if instr.Switch.Cases != nil {
		dup.Switch.Cases = make([]SwitchCase, len(instr.Switch.Cases))
		copy(dup.Switch.Cases, instr.Switch.Cases)
	}
	return &dup
}
