package irpack

import (
	"fmt"

	"fortio.org/safecast"

	"cflat/internal/ir"
)

type decoder struct {
	types []*ir.Type
	err   error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("irpack: "+format, args...)
	}
}

func (d *decoder) ref(r typeRef) *ir.Type {
	if r == noType {
		return nil
	}
	if int(r) >= len(d.types) {
		d.fail("type reference %d out of range", r)
		return nil
	}
	return d.types[r]
}

func basicType(kind ir.TypeKind) *ir.Type {
	switch kind {
	case ir.KindVoid:
		return ir.Void
	case ir.KindBool:
		return ir.Bool
	case ir.KindI8:
		return ir.I8
	case ir.KindI16:
		return ir.I16
	case ir.KindI32:
		return ir.I32
	case ir.KindI64:
		return ir.I64
	case ir.KindU8:
		return ir.U8
	case ir.KindU16:
		return ir.U16
	case ir.KindU32:
		return ir.U32
	case ir.KindU64:
		return ir.U64
	case ir.KindF32:
		return ir.F32
	case ir.KindF64:
		return ir.F64
	default:
		return nil
	}
}

// buildTypes materializes the type table. Shells are allocated first so
// recursive struct types can reference each other, then payloads are
// filled in a second pass.
func (d *decoder) buildTypes(wire []wireType) {
	d.types = make([]*ir.Type, len(wire))
	for i, wt := range wire {
		kind := ir.TypeKind(wt.Kind)
		if t := basicType(kind); t != nil {
			d.types[i] = t
			continue
		}
		switch kind {
		case ir.KindPtr, ir.KindArray, ir.KindStruct, ir.KindFunction:
			d.types[i] = &ir.Type{Kind: kind}
		default:
			d.fail("unknown type kind %d", wt.Kind)
			d.types[i] = ir.Void
		}
	}

	for i, wt := range wire {
		t := d.types[i]
		switch ir.TypeKind(wt.Kind) {
		case ir.KindPtr:
			t.Ptr.Pointee = d.ref(wt.Elem)
		case ir.KindArray:
			length, err := safecast.Conv[int](wt.Len)
			if err != nil {
				d.fail("array length %d: %v", wt.Len, err)
			}
			t.Array.Element = d.ref(wt.Elem)
			t.Array.Length = length
		case ir.KindFunction:
			t.Function.ReturnType = d.ref(wt.Ret)
			t.Function.Params = make([]*ir.Type, len(wt.Params))
			for j, p := range wt.Params {
				t.Function.Params[j] = d.ref(p)
			}
			t.Function.IsVariadic = wt.Variadic
		case ir.KindStruct:
			if len(wt.FieldTypes) != len(wt.FieldNames) {
				d.fail("struct %s: %d field types for %d names", wt.StructID, len(wt.FieldTypes), len(wt.FieldNames))
				continue
			}
			fields := make([]*ir.StructField, len(wt.FieldNames))
			for j, name := range wt.FieldNames {
				fields[j] = &ir.StructField{Name: name, Type: d.ref(wt.FieldTypes[j])}
			}
			// Overwrite the shell in place so references to it stay valid.
			*t = *ir.NewStruct(wt.StructID, fields, wt.Union)
		}
	}
}

func (d *decoder) unpackVar(wv wireVar) ir.Var {
	return ir.Var{Name: wv.Name, Type: d.ref(wv.Type)}
}

func (d *decoder) unpackConst(wc wireConst) ir.Const {
	field, err := safecast.Conv[int](wc.Field)
	if err != nil {
		d.fail("union field index %d: %v", wc.Field, err)
	}
	c := ir.Const{
		Kind:            ir.ConstKind(wc.Kind),
		Type:            d.ref(wc.Type),
		Int:             wc.Int,
		Float:           wc.Float,
		String:          wc.Str,
		IsUnion:         wc.Union,
		UnionFieldIndex: field,
		GlobalName:      wc.Global,
	}
	if len(wc.Values) > 0 {
		c.Values = make([]ir.Const, len(wc.Values))
		for i, v := range wc.Values {
			c.Values[i] = d.unpackConst(v)
		}
	}
	return c
}

func (d *decoder) unpackValue(wv wireValue) ir.Value {
	switch ir.ValueKind(wv.Kind) {
	case ir.ValueConst:
		return ir.ConstValue(d.unpackConst(wv.Const))
	case ir.ValueVar:
		return ir.VarValue(d.unpackVar(wv.Var))
	default:
		d.fail("unknown value kind %d", wv.Kind)
		return ir.Value{}
	}
}

func (d *decoder) unpackInstruction(wi wireInstruction) *ir.Instruction {
	instr := &ir.Instruction{Opcode: ir.Opcode(wi.Opcode), Label: wi.Label}

	missing := func(payload string) *ir.Instruction {
		d.fail("instruction %s: missing %s payload", instr.Opcode, payload)
		return instr
	}

	switch instr.Opcode {
	case ir.OpNop:
	case ir.OpAssign:
		if wi.Assign == nil {
			return missing("assign")
		}
		instr.Assign = ir.AssignOp{
			Value:  d.unpackValue(wi.Assign.Value),
			Result: d.unpackVar(wi.Assign.Result),
		}
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpAnd, ir.OpOr, ir.OpShl, ir.OpShr, ir.OpXor,
		ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe,
		ir.OpGetArrayElementPtr, ir.OpGetStructMemberPtr:
		if wi.Binary == nil {
			return missing("binary")
		}
		instr.Binary = ir.BinaryOp{
			Left:   d.unpackValue(wi.Binary.Left),
			Right:  d.unpackValue(wi.Binary.Right),
			Result: d.unpackVar(wi.Binary.Result),
		}
	case ir.OpNot, ir.OpLoad, ir.OpTrunc, ir.OpExt, ir.OpFtoI, ir.OpItoF,
		ir.OpPtoI, ir.OpItoP, ir.OpBitcast:
		if wi.Unary == nil {
			return missing("unary")
		}
		instr.Unary = ir.UnaryOp{
			Operand: d.unpackValue(wi.Unary.Operand),
			Result:  d.unpackVar(wi.Unary.Result),
		}
	case ir.OpBr, ir.OpBrCond:
		if wi.Branch == nil {
			return missing("branch")
		}
		instr.Branch = ir.BranchOp{Label: wi.Branch.Label, HasCond: wi.Branch.HasCond}
		if wi.Branch.HasCond {
			instr.Branch.Cond = d.unpackValue(wi.Branch.Cond)
		}
	case ir.OpCall:
		if wi.Call == nil {
			return missing("call")
		}
		call := ir.CallOp{Function: d.unpackValue(wi.Call.Function)}
		if len(wi.Call.Args) > 0 {
			call.Args = make([]ir.Value, len(wi.Call.Args))
			for i, arg := range wi.Call.Args {
				call.Args[i] = d.unpackValue(arg)
			}
		}
		if wi.Call.Result != nil {
			result := d.unpackVar(*wi.Call.Result)
			call.Result = &result
		}
		instr.Call = call
	case ir.OpRet:
		if wi.Ret == nil {
			return missing("ret")
		}
		instr.Ret = ir.RetOp{HasValue: wi.Ret.HasValue}
		if wi.Ret.HasValue {
			instr.Ret.Value = d.unpackValue(wi.Ret.Value)
		}
	case ir.OpAlloca:
		if wi.Alloca == nil {
			return missing("alloca")
		}
		instr.Alloca = ir.AllocaOp{
			Type:   d.ref(wi.Alloca.Type),
			Result: d.unpackVar(wi.Alloca.Result),
		}
	case ir.OpStore:
		if wi.Store == nil {
			return missing("store")
		}
		instr.Store = ir.StoreOp{
			Ptr:   d.unpackValue(wi.Store.Ptr),
			Value: d.unpackValue(wi.Store.Value),
		}
	case ir.OpMemset:
		if wi.Memset == nil {
			return missing("memset")
		}
		instr.Memset = ir.MemsetOp{
			Ptr:    d.unpackValue(wi.Memset.Ptr),
			Value:  d.unpackValue(wi.Memset.Value),
			Length: d.unpackValue(wi.Memset.Length),
		}
	case ir.OpMemcpy:
		if wi.Memcpy == nil {
			return missing("memcpy")
		}
		instr.Memcpy = ir.MemcpyOp{
			Dest:   d.unpackValue(wi.Memcpy.Dest),
			Src:    d.unpackValue(wi.Memcpy.Src),
			Length: d.unpackValue(wi.Memcpy.Length),
		}
	case ir.OpSwitch:
		if wi.Switch == nil {
			return missing("switch")
		}
		sw := ir.SwitchOp{
			Value:        d.unpackValue(wi.Switch.Value),
			DefaultLabel: wi.Switch.Default,
		}
		if len(wi.Switch.Cases) > 0 {
			sw.Cases = make([]ir.SwitchCase, len(wi.Switch.Cases))
			for i, c := range wi.Switch.Cases {
				sw.Cases[i] = ir.SwitchCase{Const: d.unpackConst(c.Const), Label: c.Label}
			}
		}
		instr.Switch = sw
	case ir.OpVaStart, ir.OpVaEnd, ir.OpVaArg, ir.OpVaCopy:
		if wi.Va == nil {
			return missing("va")
		}
		instr.Va = ir.VaOp{
			ListSrc:  d.unpackValue(wi.Va.ListSrc),
			ListDest: d.unpackValue(wi.Va.ListDest),
			Result:   d.unpackVar(wi.Va.Result),
			Type:     d.ref(wi.Va.Type),
		}
	default:
		d.fail("unknown opcode %d", wi.Opcode)
	}

	return instr
}

func unpack(wm *wireModule) (*ir.Module, error) {
	if wm.Schema != schemaVersion {
		return nil, fmt.Errorf("irpack: unsupported schema version %d (want %d)", wm.Schema, schemaVersion)
	}

	var arch *ir.Arch
	if wm.Arch != "" {
		arch = ir.LookupArch(wm.Arch)
		if arch == nil {
			return nil, fmt.Errorf("irpack: unknown architecture %q", wm.Arch)
		}
	}

	d := &decoder{}
	d.buildTypes(wm.Types)

	m := ir.NewModule(wm.Name, arch)

	for _, td := range wm.TypeDefs {
		m.TypeMap[td.Name] = d.ref(td.Type)
	}

	for _, wg := range wm.Globals {
		g := &ir.Global{
			Name:        wg.Name,
			Type:        d.ref(wg.Type),
			Initialized: wg.Initialized,
		}
		if wg.Initialized {
			g.Value = d.unpackConst(wg.Value)
		}
		m.AddGlobal(g)
	}

	for _, wf := range wm.Functions {
		fn := &ir.FunctionDefinition{
			Name:       wf.Name,
			Type:       d.ref(wf.Type),
			IsVariadic: wf.Variadic,
		}
		if len(wf.Params) > 0 {
			fn.Params = make([]ir.Var, len(wf.Params))
			for i, p := range wf.Params {
				fn.Params[i] = d.unpackVar(p)
			}
		}
		if len(wf.Body) > 0 {
			fn.Body = make([]*ir.Instruction, len(wf.Body))
			for i, wi := range wf.Body {
				fn.Body[i] = d.unpackInstruction(wi)
			}
		}
		m.AddFunction(fn)
	}

	if d.err != nil {
		return nil, d.err
	}
	return m, nil
}
