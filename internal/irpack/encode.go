package irpack

import (
	"fmt"
	"sort"

	"cflat/internal/ir"
)

type encoder struct {
	types []wireType
	index map[*ir.Type]typeRef
}

// addType interns a type and returns its table index. The slot is reserved
// before the payload is visited so recursive struct types terminate.
func (e *encoder) addType(t *ir.Type) typeRef {
	if t == nil {
		return noType
	}
	if ref, ok := e.index[t]; ok {
		return ref
	}

	ref := typeRef(len(e.types))
	e.index[t] = ref
	e.types = append(e.types, wireType{Kind: uint8(t.Kind)})

	var wt wireType
	wt.Kind = uint8(t.Kind)
	switch t.Kind {
	case ir.KindPtr:
		wt.Elem = e.addType(t.Ptr.Pointee)
	case ir.KindArray:
		wt.Elem = e.addType(t.Array.Element)
		wt.Len = int64(t.Array.Length)
	case ir.KindFunction:
		wt.Ret = e.addType(t.Function.ReturnType)
		wt.Params = make([]typeRef, len(t.Function.Params))
		for i, p := range t.Function.Params {
			wt.Params[i] = e.addType(p)
		}
		wt.Variadic = t.Function.IsVariadic
	case ir.KindStruct:
		wt.StructID = t.Struct.ID
		wt.Union = t.Struct.IsUnion
		wt.FieldNames = make([]string, len(t.Struct.Fields))
		wt.FieldTypes = make([]typeRef, len(t.Struct.Fields))
		for i, f := range t.Struct.Fields {
			wt.FieldNames[i] = f.Name
			wt.FieldTypes[i] = e.addType(f.Type)
		}
	}
	e.types[ref] = wt
	return ref
}

func (e *encoder) packVar(v ir.Var) wireVar {
	return wireVar{Name: v.Name, Type: e.addType(v.Type)}
}

func (e *encoder) packConst(c ir.Const) wireConst {
	wc := wireConst{
		Kind:   uint8(c.Kind),
		Type:   e.addType(c.Type),
		Int:    c.Int,
		Float:  c.Float,
		Str:    c.String,
		Union:  c.IsUnion,
		Field:  int64(c.UnionFieldIndex),
		Global: c.GlobalName,
	}
	if len(c.Values) > 0 {
		wc.Values = make([]wireConst, len(c.Values))
		for i, v := range c.Values {
			wc.Values[i] = e.packConst(v)
		}
	}
	return wc
}

func (e *encoder) packValue(v ir.Value) wireValue {
	wv := wireValue{Kind: uint8(v.Kind)}
	switch v.Kind {
	case ir.ValueConst:
		wv.Const = e.packConst(v.Const)
	case ir.ValueVar:
		wv.Var = e.packVar(v.Var)
	}
	return wv
}

func (e *encoder) packInstruction(instr *ir.Instruction) (wireInstruction, error) {
	wi := wireInstruction{Opcode: uint8(instr.Opcode), Label: instr.Label}

	switch instr.Opcode {
	case ir.OpNop:
	case ir.OpAssign:
		wi.Assign = &wireAssign{
			Value:  e.packValue(instr.Assign.Value),
			Result: e.packVar(instr.Assign.Result),
		}
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpAnd, ir.OpOr, ir.OpShl, ir.OpShr, ir.OpXor,
		ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe,
		ir.OpGetArrayElementPtr, ir.OpGetStructMemberPtr:
		wi.Binary = &wireBinary{
			Left:   e.packValue(instr.Binary.Left),
			Right:  e.packValue(instr.Binary.Right),
			Result: e.packVar(instr.Binary.Result),
		}
	case ir.OpNot, ir.OpLoad, ir.OpTrunc, ir.OpExt, ir.OpFtoI, ir.OpItoF,
		ir.OpPtoI, ir.OpItoP, ir.OpBitcast:
		wi.Unary = &wireUnary{
			Operand: e.packValue(instr.Unary.Operand),
			Result:  e.packVar(instr.Unary.Result),
		}
	case ir.OpBr, ir.OpBrCond:
		wi.Branch = &wireBranch{
			Label:   instr.Branch.Label,
			HasCond: instr.Branch.HasCond,
		}
		if instr.Branch.HasCond {
			wi.Branch.Cond = e.packValue(instr.Branch.Cond)
		}
	case ir.OpCall:
		call := &wireCall{Function: e.packValue(instr.Call.Function)}
		if len(instr.Call.Args) > 0 {
			call.Args = make([]wireValue, len(instr.Call.Args))
			for i, arg := range instr.Call.Args {
				call.Args[i] = e.packValue(arg)
			}
		}
		if instr.Call.Result != nil {
			result := e.packVar(*instr.Call.Result)
			call.Result = &result
		}
		wi.Call = call
	case ir.OpRet:
		wi.Ret = &wireRet{HasValue: instr.Ret.HasValue}
		if instr.Ret.HasValue {
			wi.Ret.Value = e.packValue(instr.Ret.Value)
		}
	case ir.OpAlloca:
		wi.Alloca = &wireAlloca{
			Type:   e.addType(instr.Alloca.Type),
			Result: e.packVar(instr.Alloca.Result),
		}
	case ir.OpStore:
		wi.Store = &wireStore{
			Ptr:   e.packValue(instr.Store.Ptr),
			Value: e.packValue(instr.Store.Value),
		}
	case ir.OpMemset:
		wi.Memset = &wireMemset{
			Ptr:    e.packValue(instr.Memset.Ptr),
			Value:  e.packValue(instr.Memset.Value),
			Length: e.packValue(instr.Memset.Length),
		}
	case ir.OpMemcpy:
		wi.Memcpy = &wireMemcpy{
			Dest:   e.packValue(instr.Memcpy.Dest),
			Src:    e.packValue(instr.Memcpy.Src),
			Length: e.packValue(instr.Memcpy.Length),
		}
	case ir.OpSwitch:
		sw := &wireSwitch{
			Value:   e.packValue(instr.Switch.Value),
			Default: instr.Switch.DefaultLabel,
		}
		if len(instr.Switch.Cases) > 0 {
			sw.Cases = make([]wireSwitchCase, len(instr.Switch.Cases))
			for i, c := range instr.Switch.Cases {
				sw.Cases[i] = wireSwitchCase{Const: e.packConst(c.Const), Label: c.Label}
			}
		}
		wi.Switch = sw
	case ir.OpVaStart, ir.OpVaEnd, ir.OpVaArg, ir.OpVaCopy:
		wi.Va = &wireVa{
			ListSrc:  e.packValue(instr.Va.ListSrc),
			ListDest: e.packValue(instr.Va.ListDest),
			Result:   e.packVar(instr.Va.Result),
			Type:     e.addType(instr.Va.Type),
		}
	default:
		return wireInstruction{}, fmt.Errorf("irpack: cannot encode opcode %d", instr.Opcode)
	}

	return wi, nil
}

func pack(m *ir.Module) (*wireModule, error) {
	e := &encoder{index: make(map[*ir.Type]typeRef)}

	wm := &wireModule{
		Schema: schemaVersion,
		Name:   m.Name,
	}
	if m.Arch != nil {
		wm.Arch = m.Arch.Name
	}

	if len(m.Globals) > 0 {
		wm.Globals = make([]wireGlobal, len(m.Globals))
		for i, g := range m.Globals {
			wg := wireGlobal{
				Name:        g.Name,
				Type:        e.addType(g.Type),
				Initialized: g.Initialized,
			}
			if g.Initialized {
				wg.Value = e.packConst(g.Value)
			}
			wm.Globals[i] = wg
		}
	}

	if len(m.Functions) > 0 {
		wm.Functions = make([]wireFunction, len(m.Functions))
		for i, fn := range m.Functions {
			wf := wireFunction{
				Name:     fn.Name,
				Type:     e.addType(fn.Type),
				Variadic: fn.IsVariadic,
			}
			if len(fn.Params) > 0 {
				wf.Params = make([]wireVar, len(fn.Params))
				for j, p := range fn.Params {
					wf.Params[j] = e.packVar(p)
				}
			}
			if len(fn.Body) > 0 {
				wf.Body = make([]wireInstruction, len(fn.Body))
				for j, instr := range fn.Body {
					wi, err := e.packInstruction(instr)
					if err != nil {
						return nil, err
					}
					wf.Body[j] = wi
				}
			}
			wm.Functions[i] = wf
		}
	}

	if len(m.TypeMap) > 0 {
		// Emit in sorted name order so the type table, and with it the
		// content digest, is deterministic.
		names := make([]string, 0, len(m.TypeMap))
		for name := range m.TypeMap {
			names = append(names, name)
		}
		sort.Strings(names)
		wm.TypeDefs = make([]wireTypeDef, len(names))
		for i, name := range names {
			wm.TypeDefs[i] = wireTypeDef{Name: name, Type: e.addType(m.TypeMap[name])}
		}
	}

	wm.Types = e.types
	return wm, nil
}
