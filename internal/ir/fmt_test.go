package ir

import (
	"strings"
	"testing"
)

func TestFormatType(t *testing.T) {
	tests := []struct {
		typ  *Type
		want string
	}{
		{Void, "void"},
		{Bool, "bool"},
		{I32, "i32"},
		{U64, "u64"},
		{F64, "f64"},
		{PointerTo(I8), "*i8"},
		{PointerTo(PointerTo(F32)), "**f32"},
		{ArrayOf(I32, 16), "[i32;16]"},
		{NewStruct("point", nil, false), "struct.point"},
		{NewStruct("val", nil, true), "union.val"},
		{FunctionOf(I32, []*Type{I32, PtrChar}, false), "(i32, *i8) -> i32"},
		{FunctionOf(Void, nil, false), "() -> void"},
	}

	for _, tt := range tests {
		if got := FormatType(tt.typ); got != tt.want {
			t.Errorf("FormatType = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatConst(t *testing.T) {
	tests := []struct {
		c    Const
		want string
	}{
		{IntConst(I32, 42), "i32 42"},
		{IntConst(I64, -7), "i64 -7"},
		{FloatConst(F64, 1), "f64 1.000000"},
		{StringConst(PtrChar, "hi\n"), `*i8 "hi\n"`},
		{GlobalPointerConst(PointerTo(I32), "@g"), "*i32 @g"},
		{
			Const{Kind: ConstArray, Type: ArrayOf(I32, 2), Values: []Const{
				IntConst(I32, 1), IntConst(I32, 2),
			}},
			"[i32;2] {i32 1,i32 2}",
		},
	}

	for _, tt := range tests {
		if got := FormatConst(tt.c); got != tt.want {
			t.Errorf("FormatConst = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatInstruction(t *testing.T) {
	ptrI32 := PointerTo(I32)

	tests := []struct {
		name  string
		instr Instruction
		want  string
	}{
		{
			name:  "nop with label",
			instr: Instruction{Opcode: OpNop, Label: "l0"},
			want:  "l0: nop",
		},
		{
			name: "add",
			instr: Instruction{Opcode: OpAdd, Binary: BinaryOp{
				Left:   VarValue(Var{Name: "%1", Type: I32}),
				Right:  ConstValue(IntConst(I32, 2)),
				Result: Var{Name: "%2", Type: I32},
			}},
			want: "i32 %2 = add i32 %1, i32 2",
		},
		{
			name: "assign",
			instr: Instruction{Opcode: OpAssign, Assign: AssignOp{
				Value:  ConstValue(IntConst(I32, 5)),
				Result: Var{Name: "%1", Type: I32},
			}},
			want: "i32 %1 = i32 5",
		},
		{
			name:  "br",
			instr: Instruction{Opcode: OpBr, Branch: BranchOp{Label: "loop"}},
			want:  "br loop",
		},
		{
			name: "br_cond",
			instr: Instruction{Opcode: OpBrCond, Branch: BranchOp{
				Label: "exit", HasCond: true,
				Cond: VarValue(Var{Name: "%c", Type: Bool}),
			}},
			want: "br bool %c, exit",
		},
		{
			name: "call with result",
			instr: Instruction{Opcode: OpCall, Call: CallOp{
				Function: VarValue(Var{Name: "@sum", Type: FunctionOf(I32, []*Type{I32, I32}, false)}),
				Args: []Value{
					ConstValue(IntConst(I32, 1)),
					VarValue(Var{Name: "%x", Type: I32}),
				},
				Result: &Var{Name: "%1", Type: I32},
			}},
			want: "i32 %1 = call @sum(i32 1, i32 %x)",
		},
		{
			name:  "ret void",
			instr: Instruction{Opcode: OpRet},
			want:  "ret void",
		},
		{
			name: "ret value",
			instr: Instruction{Opcode: OpRet, Ret: RetOp{
				HasValue: true, Value: ConstValue(IntConst(I32, 0)),
			}},
			want: "ret i32 0",
		},
		{
			name: "alloca",
			instr: Instruction{Opcode: OpAlloca, Alloca: AllocaOp{
				Type: I32, Result: Var{Name: "%p", Type: ptrI32},
			}},
			want: "*i32 %p = alloca i32",
		},
		{
			name: "store",
			instr: Instruction{Opcode: OpStore, Store: StoreOp{
				Ptr:   VarValue(Var{Name: "%p", Type: ptrI32}),
				Value: ConstValue(IntConst(I32, 9)),
			}},
			want: "store i32 9, *i32 %p",
		},
		{
			name: "load",
			instr: Instruction{Opcode: OpLoad, Unary: UnaryOp{
				Operand: VarValue(Var{Name: "%p", Type: ptrI32}),
				Result:  Var{Name: "%1", Type: I32},
			}},
			want: "i32 %1 = load *i32 %p",
		},
		{
			name: "switch",
			instr: Instruction{Opcode: OpSwitch, Switch: SwitchOp{
				Value: VarValue(Var{Name: "%x", Type: I32}),
				Cases: []SwitchCase{
					{Const: IntConst(I32, 1), Label: "one"},
					{Const: IntConst(I32, 2), Label: "two"},
				},
				DefaultLabel: "other",
			}},
			want: "switch i32 %x, other, { 1: one, 2: two }",
		},
		{
			name: "va_arg",
			instr: Instruction{Opcode: OpVaArg, Va: VaOp{
				ListSrc: VarValue(Var{Name: "%ap", Type: PointerTo(U8)}),
				Result:  Var{Name: "%1", Type: I32},
				Type:    I32,
			}},
			want: "i32 %1 = va_arg *u8 %ap, i32",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatInstruction(&tt.instr); got != tt.want {
				t.Fatalf("FormatInstruction = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteModule(t *testing.T) {
	m := NewModule("test", ArchX86_64)
	m.AddGlobal(&Global{
		Name: "@counter", Type: PointerTo(I32),
		Initialized: true, Value: IntConst(I32, 0),
	})
	m.AddGlobal(&Global{Name: "@buf", Type: PointerTo(ArrayOf(U8, 8))})

	fn := &FunctionDefinition{Name: "main", Type: FunctionOf(I32, nil, false)}
	fn.AppendInstruction(Instruction{Opcode: OpRet, Ret: RetOp{
		HasValue: true, Value: ConstValue(IntConst(I32, 0)),
	}})
	m.AddFunction(fn)

	var buf strings.Builder
	if err := WriteModule(&buf, m); err != nil {
		t.Fatalf("WriteModule: %v", err)
	}

	want := "global *i32 @counter = i32 0\n" +
		"global *[u8;8] @buf\n" +
		"function main () -> i32 {\n" +
		"    ret i32 0\n" +
		"}\n"
	if buf.String() != want {
		t.Fatalf("module text:\n%s\nwant:\n%s", buf.String(), want)
	}
}
