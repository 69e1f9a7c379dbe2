package ir

// ValidationError reports a single malformed instruction.
type ValidationError struct {
	Instruction *Instruction
	Message     string
}

func (e ValidationError) Error() string {
	return e.Message
}

type validator struct {
	module   *Module
	function *FunctionDefinition

	// variable name -> type of its first occurrence
	variables map[string]*Type
	errors    []ValidationError
}

func (v *validator) errorf(instr *Instruction, message string) {
	v.errors = append(v.errors, ValidationError{Instruction: instr, Message: message})
}

// visitVariable records a variable occurrence and reports a conflict when
// the same name reappears with a different type.
func (v *validator) visitVariable(instr *Instruction, variable Var) {
	if existing, ok := v.variables[variable.Name]; ok {
		if !TypesEqual(existing, variable.Type) {
			v.errorf(instr, "Variable redefined with different type")
		}
	} else {
		v.variables[variable.Name] = variable.Type
	}
}

func (v *validator) visitValue(instr *Instruction, value Value) {
	if value.Kind == ValueVar {
		v.visitVariable(instr, value.Var)
	}
}

func (v *validator) check3WayTypeMatch(instr *Instruction, a *Type, b, c Value) {
	if !TypesEqual(a, b.TypeOf()) || !TypesEqual(b.TypeOf(), c.TypeOf()) {
		v.errorf(instr, "Type mismatch (result and operands must have the same type)")
	}
}

func (v *validator) check2WayTypeMatch(instr *Instruction, a *Type, b Value) {
	if !TypesEqual(a, b.TypeOf()) {
		v.errorf(instr, "Type mismatch (result and value must have the same type)")
	}
}

func (v *validator) visitInstruction(instr *Instruction) {
	switch instr.Opcode {
	case OpNop:
		// Nothing to check.

	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpAnd, OpOr, OpShl, OpShr, OpXor:
		v.check3WayTypeMatch(instr, instr.Binary.Result.Type, instr.Binary.Left, instr.Binary.Right)
		v.visitVariable(instr, instr.Binary.Result)
		v.visitValue(instr, instr.Binary.Left)
		v.visitValue(instr, instr.Binary.Right)

	case OpAssign:
		v.check2WayTypeMatch(instr, instr.Assign.Result.Type, instr.Assign.Value)
		v.visitVariable(instr, instr.Assign.Result)
		v.visitValue(instr, instr.Assign.Value)

	case OpNot:
		v.check2WayTypeMatch(instr, instr.Unary.Result.Type, instr.Unary.Operand)
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)

	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		if !TypesEqual(instr.Binary.Left.TypeOf(), instr.Binary.Right.TypeOf()) {
			v.errorf(instr, "Type mismatch (comparison operands must have the same type)")
		}
		if instr.Binary.Result.Type.Kind != KindBool {
			v.errorf(instr, "Comparison result must be a boolean")
		}
		v.visitVariable(instr, instr.Binary.Result)
		v.visitValue(instr, instr.Binary.Left)
		v.visitValue(instr, instr.Binary.Right)

	case OpBr:
		if instr.Branch.Label == "" {
			v.errorf(instr, "Branch instruction must have a label")
		}

	case OpBrCond:
		if instr.Branch.Label == "" {
			v.errorf(instr, "Branch instruction must have a label")
		}
		if !instr.Branch.HasCond {
			v.errorf(instr, "Branch instruction must have a condition")
		} else {
			v.visitValue(instr, instr.Branch.Cond)
			if instr.Branch.Cond.TypeOf().Kind != KindBool {
				v.errorf(instr, "Branch condition must be a boolean")
			}
		}

	case OpCall:
		v.visitCall(instr)

	case OpRet:
		returnType := Void
		if instr.Ret.HasValue {
			v.visitValue(instr, instr.Ret.Value)
			returnType = instr.Ret.Value.TypeOf()
		}
		if !TypesEqual(returnType, v.function.Type.Function.ReturnType) {
			v.errorf(instr, "Return value type does not match function return type")
		}

	case OpAlloca:
		v.visitVariable(instr, instr.Alloca.Result)
		if instr.Alloca.Result.Type.Kind != KindPtr {
			v.errorf(instr, "alloca result must be a pointer")
		} else if !TypesEqual(instr.Alloca.Result.Type.Ptr.Pointee, instr.Alloca.Type) {
			v.errorf(instr, "alloca result type does not match the type of the value being allocated")
		}

	case OpLoad:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		if instr.Unary.Operand.TypeOf().Kind != KindPtr {
			v.errorf(instr, "load value must be a pointer")
		} else if !TypesEqual(instr.Unary.Result.Type, instr.Unary.Operand.TypeOf().Ptr.Pointee) {
			v.errorf(instr, "load result type does not match the type of the value being loaded")
		}

	case OpStore:
		v.visitValue(instr, instr.Store.Value)
		v.visitValue(instr, instr.Store.Ptr)
		if instr.Store.Ptr.TypeOf().Kind != KindPtr {
			v.errorf(instr, "store pointer must be a pointer")
		} else if !TypesEqual(instr.Store.Ptr.TypeOf().Ptr.Pointee, instr.Store.Value.TypeOf()) {
			v.errorf(instr, "store value type does not match the type of the pointer being stored to")
		}

	case OpMemcpy:
		v.visitValue(instr, instr.Memcpy.Src)
		v.visitValue(instr, instr.Memcpy.Dest)
		v.visitValue(instr, instr.Memcpy.Length)
		if kind := instr.Memcpy.Dest.TypeOf().Kind; kind != KindPtr && kind != KindArray {
			v.errorf(instr, "memcpy destination must be an array or pointer")
		}
		if kind := instr.Memcpy.Src.TypeOf().Kind; kind != KindPtr && kind != KindArray {
			v.errorf(instr, "memcpy source must be an array or pointer")
		}

	case OpMemset:
		v.visitValue(instr, instr.Memset.Ptr)
		v.visitValue(instr, instr.Memset.Value)
		v.visitValue(instr, instr.Memset.Length)
		if kind := instr.Memset.Ptr.TypeOf().Kind; kind != KindPtr && kind != KindArray {
			v.errorf(instr, "memset destination must be an array or pointer")
		}
		if !IsInteger(instr.Memset.Length.TypeOf()) {
			v.errorf(instr, "memset length must be an integer")
		}

	case OpGetArrayElementPtr:
		v.visitValue(instr, instr.Binary.Left)
		v.visitValue(instr, instr.Binary.Right)
		v.visitVariable(instr, instr.Binary.Result)
		if instr.Binary.Left.TypeOf().Kind != KindPtr {
			v.errorf(instr, "get_array_element_ptr left operand must be a pointer")
		}
		if !IsInteger(instr.Binary.Right.TypeOf()) {
			v.errorf(instr, "get_array_element_ptr right operand must be an integer")
		}
		if instr.Binary.Result.Type.Kind != KindPtr {
			v.errorf(instr, "get_array_element_ptr result must be a pointer")
		} else if instr.Binary.Left.TypeOf().Kind == KindPtr {
			elementType := instr.Binary.Left.TypeOf().Ptr.Pointee
			if elementType.Kind == KindArray {
				elementType = elementType.Array.Element
			}
			if !TypesEqual(instr.Binary.Result.Type.Ptr.Pointee, elementType) {
				v.errorf(instr, "get_array_element_ptr result type does not match the element type of the source array")
			}
		}

	case OpGetStructMemberPtr:
		v.visitValue(instr, instr.Binary.Left)
		v.visitValue(instr, instr.Binary.Right)
		v.visitVariable(instr, instr.Binary.Result)
		if instr.Binary.Left.TypeOf().Kind != KindPtr ||
			instr.Binary.Left.TypeOf().Ptr.Pointee.Kind != KindStruct {
			v.errorf(instr, "get_struct_member_ptr left operand must be a pointer to a struct or union")
			return
		}
		structType := instr.Binary.Left.TypeOf().Ptr.Pointee

		if instr.Binary.Right.Kind != ValueConst || instr.Binary.Right.Const.Kind != ConstInt {
			v.errorf(instr, "get_struct_member_ptr right operand (field index) must be a constant int")
			return
		}

		index := instr.Binary.Right.Const.Int
		if index < 0 || index >= int64(len(structType.Struct.Fields)) {
			v.errorf(instr, "get_struct_member_ptr right operand (field index) does not reference field in the struct type")
			return
		}

		field := structType.Struct.Fields[index]
		if instr.Binary.Result.Type.Kind != KindPtr ||
			!TypesEqual(field.Type, instr.Binary.Result.Type.Ptr.Pointee) {
			v.errorf(instr, "get_struct_member_ptr result type must be a pointer with a base type which matches the field type")
		}

	case OpTrunc:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		resultType := instr.Unary.Result.Type
		valueType := instr.Unary.Operand.TypeOf()
		if IsInteger(resultType) && !IsInteger(valueType) {
			v.errorf(instr, "Truncation result and value must both be integers, or both must be floating point numbers")
		} else if IsFloat(resultType) && !IsFloat(valueType) {
			v.errorf(instr, "Truncation result and value must both be integers, or both must be floating point numbers")
		} else if !IsInteger(resultType) && !IsFloat(resultType) {
			v.errorf(instr, "Truncation result and operand types must be integer or floating point numbers")
		}
		if SizeOfBits(v.module.Arch, resultType) >= SizeOfBits(v.module.Arch, valueType) {
			v.errorf(instr, "Truncation result type must be smaller than the value being truncated")
		}

	case OpExt:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		resultType := instr.Unary.Result.Type
		valueType := instr.Unary.Operand.TypeOf()
		if IsInteger(resultType) && !IsInteger(valueType) {
			v.errorf(instr, "Extension result and value must both be integers, or both must be floating point numbers")
		} else if IsFloat(resultType) && !IsFloat(valueType) {
			v.errorf(instr, "Extension result and value must both be integers, or both must be floating point numbers")
		} else if !IsInteger(resultType) && !IsFloat(resultType) {
			v.errorf(instr, "Extension result and operand types must be integer or floating point numbers")
		}
		if SizeOfBits(v.module.Arch, resultType) <= SizeOfBits(v.module.Arch, valueType) {
			v.errorf(instr, "Extension result type must be larger than the value being extended")
		}

	case OpFtoI:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		if !IsInteger(instr.Unary.Result.Type) {
			v.errorf(instr, "ftoi result must be an integer")
		}
		if !IsFloat(instr.Unary.Operand.TypeOf()) {
			v.errorf(instr, "ftoi operand must be a floating point number")
		}

	case OpItoF:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		if !IsFloat(instr.Unary.Result.Type) {
			v.errorf(instr, "itof result must be a floating point number")
		}
		if !IsInteger(instr.Unary.Operand.TypeOf()) {
			v.errorf(instr, "itof operand must be an integer")
		}

	case OpPtoI:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		if !IsInteger(instr.Unary.Result.Type) {
			v.errorf(instr, "ptoi result must be an integer")
		}
		if instr.Unary.Operand.TypeOf().Kind != KindPtr {
			v.errorf(instr, "ptoi operand must be a pointer")
		}

	case OpItoP:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		if instr.Unary.Result.Type.Kind != KindPtr {
			v.errorf(instr, "itop result must be a pointer")
		}
		if !IsInteger(instr.Unary.Operand.TypeOf()) {
			v.errorf(instr, "itop operand must be an integer")
		}

	case OpBitcast:
		v.visitVariable(instr, instr.Unary.Result)
		v.visitValue(instr, instr.Unary.Operand)
		if SizeOfBits(v.module.Arch, instr.Unary.Result.Type) != SizeOfBits(v.module.Arch, instr.Unary.Operand.TypeOf()) {
			v.errorf(instr, "Bitcast result and operand must have the same size")
		}

	case OpSwitch:
		// Label targets are checked in the second pass.
		if instr.Switch.DefaultLabel == "" {
			v.errorf(instr, "switch instruction must have a default label")
		}
		if !IsInteger(instr.Switch.Value.TypeOf()) {
			v.errorf(instr, "switch expression must have integer value")
		}
		v.visitValue(instr, instr.Switch.Value)
		for _, c := range instr.Switch.Cases {
			if !IsInteger(c.Const.Type) {
				v.errorf(instr, "switch case expression must have integer type")
			}
		}

	case OpVaStart, OpVaEnd:
		v.visitValue(instr, instr.Va.ListSrc)

	case OpVaArg:
		v.visitValue(instr, instr.Va.ListSrc)
		v.visitVariable(instr, instr.Va.Result)

	case OpVaCopy:
		v.visitValue(instr, instr.Va.ListSrc)
		v.visitValue(instr, instr.Va.ListDest)

	default:
		v.errorf(instr, "Invalid opcode value")
	}
}

func (v *validator) visitCall(instr *Instruction) {
	v.visitValue(instr, instr.Call.Function)
	fnType := instr.Call.Function.TypeOf()
	if fnType.Kind != KindFunction {
		v.errorf(instr, "call target must have a function type")
		return
	}
	params := fnType.Function.Params
	if len(instr.Call.Args) < len(params) ||
		(!fnType.Function.IsVariadic && len(instr.Call.Args) != len(params)) {
		v.errorf(instr, "call argument count does not match the function signature")
	}
	for i := range instr.Call.Args {
		v.visitValue(instr, instr.Call.Args[i])
		if i < len(params) && !TypesEqual(instr.Call.Args[i].TypeOf(), params[i]) {
			v.errorf(instr, "call argument type does not match the function signature")
		}
	}
	if instr.Call.Result != nil {
		v.visitVariable(instr, *instr.Call.Result)
		if fnType.Function.ReturnType.Kind == KindVoid {
			v.errorf(instr, "call to a void function must not have a result")
		} else if !TypesEqual(instr.Call.Result.Type, fnType.Function.ReturnType) {
			v.errorf(instr, "call result type does not match the function return type")
		}
	}
}

// ValidateFunction checks that a function body is well formed: labels are
// unique, branch and switch targets exist, variables keep a single type, and
// every instruction's operands satisfy its typing rules. It returns one
// error per violation found.
func ValidateFunction(module *Module, function *FunctionDefinition) []ValidationError {
	v := &validator{
		module:    module,
		function:  function,
		variables: make(map[string]*Type),
	}

	// First pass: record labels (reporting duplicates), record variable
	// types, and check each instruction in isolation.
	labels := make(map[string]*Instruction)
	for _, instr := range function.Body {
		if instr.Label != "" {
			if _, ok := labels[instr.Label]; ok {
				v.errorf(instr, "Duplicate label")
			}
			labels[instr.Label] = instr
		}
		v.visitInstruction(instr)
	}

	// Second pass: all branch targets must name a recorded label.
	for _, instr := range function.Body {
		label := ""
		switch instr.Opcode {
		case OpBr, OpBrCond:
			label = instr.Branch.Label
		case OpSwitch:
			label = instr.Switch.DefaultLabel
			for _, c := range instr.Switch.Cases {
				if c.Label == "" {
					v.errorf(instr, "Missing label in switch case")
				} else if _, ok := labels[c.Label]; !ok {
					v.errorf(instr, "Invalid switch case target label")
				}
			}
		}
		if label != "" {
			if _, ok := labels[label]; !ok {
				v.errorf(instr, "Invalid branch target")
			}
		}
	}

	return v.errors
}
