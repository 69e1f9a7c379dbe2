package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatType renders a type in IR syntax. Struct and union types print only
// their name, not the full definition.
func FormatType(t *Type) string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindPtr:
		return "*" + FormatType(t.Ptr.Pointee)
	case KindArray:
		return fmt.Sprintf("[%s;%d]", FormatType(t.Array.Element), t.Array.Length)
	case KindStruct:
		if t.Struct.IsUnion {
			return "union." + t.Struct.ID
		}
		return "struct." + t.Struct.ID
	case KindFunction:
		params := make([]string, len(t.Function.Params))
		for i, p := range t.Function.Params {
			params[i] = FormatType(p)
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), FormatType(t.Function.ReturnType))
	default:
		return "unknown"
	}
}

// formatConstString escapes control characters in a string constant.
// Sequences already escaped in the source text are kept as-is.
func formatConstString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		prevEscape := i > 0 && s[i-1] == '\\'
		if !prevEscape {
			switch c {
			case '\n':
				b.WriteString(`\n`)
				continue
			case '\t':
				b.WriteString(`\t`)
				continue
			case '\r':
				b.WriteString(`\r`)
				continue
			case '"':
				b.WriteString(`\"`)
				continue
			case '\\':
				b.WriteString(`\\`)
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// FormatConst renders a constant with its leading type.
func FormatConst(c Const) string {
	return FormatType(c.Type) + " " + formatConstNoType(c)
}

func formatConstNoType(c Const) string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'f', 6, 64)
	case ConstString:
		return `"` + formatConstString(c.String) + `"`
	case ConstArray, ConstStruct:
		var b strings.Builder
		b.WriteByte('{')
		for i := range c.Values {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(FormatConst(c.Values[i]))
		}
		b.WriteByte('}')
		return b.String()
	case ConstGlobalPointer:
		return c.GlobalName
	default:
		return ""
	}
}

// FormatVar renders a variable with its type, e.g. `i32 %1`.
func FormatVar(v Var) string {
	return FormatType(v.Type) + " " + v.Name
}

// FormatValue renders an operand, constant or variable.
func FormatValue(v Value) string {
	if v.Kind == ValueConst {
		return FormatConst(v.Const)
	}
	return FormatVar(v.Var)
}

// FormatInstruction renders a single instruction in IR syntax, including its
// label prefix when present.
func FormatInstruction(instr *Instruction) string {
	var b strings.Builder
	if instr.Label != "" {
		b.WriteString(instr.Label)
		b.WriteString(": ")
	}

	switch instr.Opcode {
	case OpNop:
		b.WriteString("nop")
	case OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpAnd, OpOr, OpShl, OpShr, OpXor,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe,
		OpGetArrayElementPtr, OpGetStructMemberPtr:
		fmt.Fprintf(&b, "%s = %s %s, %s",
			FormatVar(instr.Binary.Result), instr.Opcode,
			FormatValue(instr.Binary.Left), FormatValue(instr.Binary.Right))
	case OpAssign:
		fmt.Fprintf(&b, "%s = %s", FormatVar(instr.Assign.Result), FormatValue(instr.Assign.Value))
	case OpNot, OpLoad, OpTrunc, OpExt, OpFtoI, OpItoF, OpPtoI, OpItoP, OpBitcast:
		fmt.Fprintf(&b, "%s = %s %s",
			FormatVar(instr.Unary.Result), instr.Opcode, FormatValue(instr.Unary.Operand))
	case OpBr:
		fmt.Fprintf(&b, "br %s", instr.Branch.Label)
	case OpBrCond:
		fmt.Fprintf(&b, "br %s, %s", FormatValue(instr.Branch.Cond), instr.Branch.Label)
	case OpCall:
		if instr.Call.Result != nil {
			fmt.Fprintf(&b, "%s = ", FormatVar(*instr.Call.Result))
		}
		if instr.Call.Function.Kind == ValueVar {
			fmt.Fprintf(&b, "call %s(", instr.Call.Function.Var.Name)
		} else {
			fmt.Fprintf(&b, "call %s(", formatConstNoType(instr.Call.Function.Const))
		}
		for i, arg := range instr.Call.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(FormatValue(arg))
		}
		b.WriteByte(')')
	case OpRet:
		if instr.Ret.HasValue {
			fmt.Fprintf(&b, "ret %s", FormatValue(instr.Ret.Value))
		} else {
			b.WriteString("ret void")
		}
	case OpAlloca:
		fmt.Fprintf(&b, "%s = alloca %s", FormatVar(instr.Alloca.Result), FormatType(instr.Alloca.Type))
	case OpStore:
		fmt.Fprintf(&b, "store %s, %s", FormatValue(instr.Store.Value), FormatValue(instr.Store.Ptr))
	case OpMemcpy:
		fmt.Fprintf(&b, "memcpy %s, %s, %s",
			FormatValue(instr.Memcpy.Dest), FormatValue(instr.Memcpy.Src), FormatValue(instr.Memcpy.Length))
	case OpMemset:
		fmt.Fprintf(&b, "memset %s, %s, %s",
			FormatValue(instr.Memset.Ptr), FormatValue(instr.Memset.Value), FormatValue(instr.Memset.Length))
	case OpSwitch:
		fmt.Fprintf(&b, "switch %s, %s, { ", FormatValue(instr.Switch.Value), instr.Switch.DefaultLabel)
		for i, c := range instr.Switch.Cases {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%d: %s", c.Const.Int, c.Label)
		}
		b.WriteString(" }")
	case OpVaStart:
		fmt.Fprintf(&b, "va_start %s", FormatValue(instr.Va.ListSrc))
	case OpVaEnd:
		fmt.Fprintf(&b, "va_end %s", FormatValue(instr.Va.ListSrc))
	case OpVaArg:
		fmt.Fprintf(&b, "%s = va_arg %s, %s",
			FormatVar(instr.Va.Result), FormatValue(instr.Va.ListSrc), FormatType(instr.Va.Type))
	case OpVaCopy:
		fmt.Fprintf(&b, "va_copy %s, %s", FormatValue(instr.Va.ListSrc), FormatValue(instr.Va.ListDest))
	}

	return b.String()
}

// WriteModule writes the whole module in textual IR form: globals first,
// then each function body with one indented instruction per line.
func WriteModule(w io.Writer, m *Module) error {
	for _, g := range m.Globals {
		var err error
		if g.Initialized {
			_, err = fmt.Fprintf(w, "global %s %s = %s\n", FormatType(g.Type), g.Name, FormatConst(g.Value))
		} else {
			_, err = fmt.Fprintf(w, "global %s %s\n", FormatType(g.Type), g.Name)
		}
		if err != nil {
			return err
		}
	}

	for _, fn := range m.Functions {
		if _, err := fmt.Fprintf(w, "function %s %s {\n", fn.Name, FormatType(fn.Type)); err != nil {
			return err
		}
		for _, instr := range fn.Body {
			if _, err := fmt.Fprintf(w, "    %s\n", FormatInstruction(instr)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "}"); err != nil {
			return err
		}
	}
	return nil
}
