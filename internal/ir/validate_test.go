package ir

import (
	"strings"
	"testing"
)

func testModule() *Module {
	return NewModule("test", ArchX86_64)
}

func voidFunction(name string, body ...Instruction) *FunctionDefinition {
	fn := &FunctionDefinition{
		Name: name,
		Type: FunctionOf(Void, nil, false),
	}
	for _, instr := range body {
		fn.AppendInstruction(instr)
	}
	return fn
}

func messages(errors []ValidationError) []string {
	out := make([]string, len(errors))
	for i, e := range errors {
		out[i] = e.Message
	}
	return out
}

func requireError(t *testing.T, errors []ValidationError, want string) {
	t.Helper()
	for _, e := range errors {
		if e.Message == want {
			return
		}
	}
	t.Fatalf("missing error %q, got %v", want, messages(errors))
}

func TestValidateWellFormedFunction(t *testing.T) {
	fn := &FunctionDefinition{
		Name:   "add_one",
		Type:   FunctionOf(I32, []*Type{I32}, false),
		Params: []Var{{Name: "x", Type: I32}},
	}
	fn.AppendInstruction(Instruction{
		Opcode: OpAdd,
		Binary: BinaryOp{
			Left:   VarValue(Var{Name: "x", Type: I32}),
			Right:  ConstValue(IntConst(I32, 1)),
			Result: Var{Name: "%1", Type: I32},
		},
	})
	fn.AppendInstruction(Instruction{
		Opcode: OpRet,
		Ret:    RetOp{HasValue: true, Value: VarValue(Var{Name: "%1", Type: I32})},
	})

	if errors := ValidateFunction(testModule(), fn); len(errors) != 0 {
		t.Fatalf("unexpected errors: %v", messages(errors))
	}
}

func TestValidateBinaryTypeMismatch(t *testing.T) {
	fn := voidFunction("f",
		Instruction{
			Opcode: OpAdd,
			Binary: BinaryOp{
				Left:   ConstValue(IntConst(I32, 1)),
				Right:  ConstValue(IntConst(I64, 2)),
				Result: Var{Name: "%1", Type: I32},
			},
		},
		Instruction{Opcode: OpRet},
	)

	errors := ValidateFunction(testModule(), fn)
	requireError(t, errors, "Type mismatch (result and operands must have the same type)")
}

func TestValidateVariableRedefinedWithDifferentType(t *testing.T) {
	fn := voidFunction("f",
		Instruction{
			Opcode: OpAssign,
			Assign: AssignOp{Value: ConstValue(IntConst(I32, 1)), Result: Var{Name: "%1", Type: I32}},
		},
		Instruction{
			Opcode: OpAssign,
			Assign: AssignOp{Value: ConstValue(FloatConst(F64, 1)), Result: Var{Name: "%1", Type: F64}},
		},
		Instruction{Opcode: OpRet},
	)

	errors := ValidateFunction(testModule(), fn)
	requireError(t, errors, "Variable redefined with different type")
}

func TestValidateComparisonResultMustBeBool(t *testing.T) {
	fn := voidFunction("f",
		Instruction{
			Opcode: OpEq,
			Binary: BinaryOp{
				Left:   ConstValue(IntConst(I32, 1)),
				Right:  ConstValue(IntConst(I32, 2)),
				Result: Var{Name: "%1", Type: I32},
			},
		},
		Instruction{Opcode: OpRet},
	)

	errors := ValidateFunction(testModule(), fn)
	requireError(t, errors, "Comparison result must be a boolean")
}

func TestValidateBranchTargets(t *testing.T) {
	tests := []struct {
		name string
		fn   *FunctionDefinition
		want string
	}{
		{
			name: "missing label",
			fn: voidFunction("f",
				Instruction{Opcode: OpBr},
				Instruction{Opcode: OpRet},
			),
			want: "Branch instruction must have a label",
		},
		{
			name: "unknown target",
			fn: voidFunction("f",
				Instruction{Opcode: OpBr, Branch: BranchOp{Label: "nowhere"}},
				Instruction{Opcode: OpRet},
			),
			want: "Invalid branch target",
		},
		{
			name: "non-bool condition",
			fn: voidFunction("f",
				Instruction{
					Opcode: OpBrCond,
					Branch: BranchOp{Label: "end", HasCond: true, Cond: ConstValue(IntConst(I32, 1))},
				},
				Instruction{Opcode: OpNop, Label: "end"},
				Instruction{Opcode: OpRet},
			),
			want: "Branch condition must be a boolean",
		},
		{
			name: "duplicate label",
			fn: voidFunction("f",
				Instruction{Opcode: OpNop, Label: "l0"},
				Instruction{Opcode: OpNop, Label: "l0"},
				Instruction{Opcode: OpRet},
			),
			want: "Duplicate label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateFunction(testModule(), tt.fn)
			requireError(t, errors, tt.want)
		})
	}
}

func TestValidateReturnTypeMismatch(t *testing.T) {
	fn := &FunctionDefinition{
		Name: "f",
		Type: FunctionOf(I32, nil, false),
	}
	fn.AppendInstruction(Instruction{Opcode: OpRet})

	errors := ValidateFunction(testModule(), fn)
	requireError(t, errors, "Return value type does not match function return type")
}

func TestValidateMemoryInstructions(t *testing.T) {
	ptrI32 := PointerTo(I32)

	tests := []struct {
		name  string
		instr Instruction
		want  string
	}{
		{
			name: "alloca result not pointer",
			instr: Instruction{
				Opcode: OpAlloca,
				Alloca: AllocaOp{Type: I32, Result: Var{Name: "%1", Type: I32}},
			},
			want: "alloca result must be a pointer",
		},
		{
			name: "alloca pointee mismatch",
			instr: Instruction{
				Opcode: OpAlloca,
				Alloca: AllocaOp{Type: I64, Result: Var{Name: "%1", Type: ptrI32}},
			},
			want: "alloca result type does not match the type of the value being allocated",
		},
		{
			name: "load from non-pointer",
			instr: Instruction{
				Opcode: OpLoad,
				Unary: UnaryOp{
					Operand: ConstValue(IntConst(I32, 0)),
					Result:  Var{Name: "%1", Type: I32},
				},
			},
			want: "load value must be a pointer",
		},
		{
			name: "store pointee mismatch",
			instr: Instruction{
				Opcode: OpStore,
				Store: StoreOp{
					Ptr:   VarValue(Var{Name: "%p", Type: ptrI32}),
					Value: ConstValue(IntConst(I64, 0)),
				},
			},
			want: "store value type does not match the type of the pointer being stored to",
		},
		{
			name: "memcpy dest not pointer",
			instr: Instruction{
				Opcode: OpMemcpy,
				Memcpy: MemcpyOp{
					Dest:   ConstValue(IntConst(I32, 0)),
					Src:    VarValue(Var{Name: "%p", Type: ptrI32}),
					Length: ConstValue(IntConst(U64, 4)),
				},
			},
			want: "memcpy destination must be an array or pointer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := voidFunction("f", tt.instr, Instruction{Opcode: OpRet})
			errors := ValidateFunction(testModule(), fn)
			requireError(t, errors, tt.want)
		})
	}
}

func TestValidateGetStructMemberPtr(t *testing.T) {
	point := NewStruct("point", []*StructField{
		{Name: "x", Type: I32},
		{Name: "y", Type: I32},
	}, false)
	ptrPoint := PointerTo(point)

	tests := []struct {
		name  string
		instr Instruction
		want  string
	}{
		{
			name: "non-struct pointer",
			instr: Instruction{
				Opcode: OpGetStructMemberPtr,
				Binary: BinaryOp{
					Left:   VarValue(Var{Name: "%p", Type: PointerTo(I32)}),
					Right:  ConstValue(IntConst(I32, 0)),
					Result: Var{Name: "%1", Type: PointerTo(I32)},
				},
			},
			want: "get_struct_member_ptr left operand must be a pointer to a struct or union",
		},
		{
			name: "non-constant index",
			instr: Instruction{
				Opcode: OpGetStructMemberPtr,
				Binary: BinaryOp{
					Left:   VarValue(Var{Name: "%p", Type: ptrPoint}),
					Right:  VarValue(Var{Name: "%i", Type: I32}),
					Result: Var{Name: "%1", Type: PointerTo(I32)},
				},
			},
			want: "get_struct_member_ptr right operand (field index) must be a constant int",
		},
		{
			name: "index out of range",
			instr: Instruction{
				Opcode: OpGetStructMemberPtr,
				Binary: BinaryOp{
					Left:   VarValue(Var{Name: "%p", Type: ptrPoint}),
					Right:  ConstValue(IntConst(I32, 5)),
					Result: Var{Name: "%1", Type: PointerTo(I32)},
				},
			},
			want: "get_struct_member_ptr right operand (field index) does not reference field in the struct type",
		},
		{
			name: "result type mismatch",
			instr: Instruction{
				Opcode: OpGetStructMemberPtr,
				Binary: BinaryOp{
					Left:   VarValue(Var{Name: "%p", Type: ptrPoint}),
					Right:  ConstValue(IntConst(I32, 0)),
					Result: Var{Name: "%1", Type: PointerTo(I64)},
				},
			},
			want: "get_struct_member_ptr result type must be a pointer with a base type which matches the field type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := voidFunction("f", tt.instr, Instruction{Opcode: OpRet})
			errors := ValidateFunction(testModule(), fn)
			requireError(t, errors, tt.want)
		})
	}
}

func TestValidateConversions(t *testing.T) {
	tests := []struct {
		name   string
		opcode Opcode
		from   Value
		result Var
		want   string
	}{
		{
			name:   "trunc must shrink",
			opcode: OpTrunc,
			from:   ConstValue(IntConst(I32, 1)),
			result: Var{Name: "%1", Type: I64},
			want:   "Truncation result type must be smaller than the value being truncated",
		},
		{
			name:   "ext must grow",
			opcode: OpExt,
			from:   ConstValue(IntConst(I64, 1)),
			result: Var{Name: "%1", Type: I32},
			want:   "Extension result type must be larger than the value being extended",
		},
		{
			name:   "ftoi needs float operand",
			opcode: OpFtoI,
			from:   ConstValue(IntConst(I32, 1)),
			result: Var{Name: "%1", Type: I32},
			want:   "ftoi operand must be a floating point number",
		},
		{
			name:   "itof needs integer operand",
			opcode: OpItoF,
			from:   ConstValue(FloatConst(F32, 1)),
			result: Var{Name: "%1", Type: F32},
			want:   "itof operand must be an integer",
		},
		{
			name:   "ptoi needs pointer operand",
			opcode: OpPtoI,
			from:   ConstValue(IntConst(I64, 1)),
			result: Var{Name: "%1", Type: I64},
			want:   "ptoi operand must be a pointer",
		},
		{
			name:   "itop result must be pointer",
			opcode: OpItoP,
			from:   ConstValue(IntConst(I64, 1)),
			result: Var{Name: "%1", Type: I64},
			want:   "itop result must be a pointer",
		},
		{
			name:   "bitcast size mismatch",
			opcode: OpBitcast,
			from:   ConstValue(IntConst(I64, 1)),
			result: Var{Name: "%1", Type: I32},
			want:   "Bitcast result and operand must have the same size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := voidFunction("f",
				Instruction{Opcode: tt.opcode, Unary: UnaryOp{Operand: tt.from, Result: tt.result}},
				Instruction{Opcode: OpRet},
			)
			errors := ValidateFunction(testModule(), fn)
			requireError(t, errors, tt.want)
		})
	}
}

func TestValidateSwitch(t *testing.T) {
	fn := voidFunction("f",
		Instruction{
			Opcode: OpSwitch,
			Switch: SwitchOp{
				Value: ConstValue(IntConst(I32, 1)),
				Cases: []SwitchCase{
					{Const: IntConst(I32, 0), Label: "case0"},
					{Const: IntConst(I32, 1), Label: "missing"},
				},
				DefaultLabel: "end",
			},
		},
		Instruction{Opcode: OpNop, Label: "case0"},
		Instruction{Opcode: OpNop, Label: "end"},
		Instruction{Opcode: OpRet},
	)

	errors := ValidateFunction(testModule(), fn)
	requireError(t, errors, "Invalid switch case target label")
}

func TestValidateCall(t *testing.T) {
	fnType := FunctionOf(I32, []*Type{I32, PtrChar}, false)

	tests := []struct {
		name  string
		instr Instruction
		want  string
	}{
		{
			name: "argument count mismatch",
			instr: Instruction{
				Opcode: OpCall,
				Call: CallOp{
					Function: VarValue(Var{Name: "@f", Type: fnType}),
					Args:     []Value{ConstValue(IntConst(I32, 1))},
				},
			},
			want: "call argument count does not match the function signature",
		},
		{
			name: "argument type mismatch",
			instr: Instruction{
				Opcode: OpCall,
				Call: CallOp{
					Function: VarValue(Var{Name: "@f", Type: fnType}),
					Args: []Value{
						ConstValue(IntConst(I64, 1)),
						VarValue(Var{Name: "%s", Type: PtrChar}),
					},
				},
			},
			want: "call argument type does not match the function signature",
		},
		{
			name: "result type mismatch",
			instr: Instruction{
				Opcode: OpCall,
				Call: CallOp{
					Function: VarValue(Var{Name: "@f", Type: fnType}),
					Args: []Value{
						ConstValue(IntConst(I32, 1)),
						VarValue(Var{Name: "%s", Type: PtrChar}),
					},
					Result: &Var{Name: "%1", Type: I64},
				},
			},
			want: "call result type does not match the function return type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := voidFunction("f", tt.instr, Instruction{Opcode: OpRet})
			errors := ValidateFunction(testModule(), fn)
			requireError(t, errors, tt.want)
		})
	}
}

func TestValidationErrorImplementsError(t *testing.T) {
	err := ValidationError{Message: "Duplicate label"}
	if !strings.Contains(err.Error(), "Duplicate label") {
		t.Fatalf("unexpected error text: %q", err.Error())
	}
}
