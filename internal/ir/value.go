package ir

// ConstKind enumerates constant kinds.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstArray
	ConstStruct
	ConstGlobalPointer
)

// Const is a typed constant. The payload field that is populated depends on
// Kind.
type Const struct {
	Kind ConstKind
	Type *Type

	Int    int64
	Float  float64
	String string

	// Array elements (ConstArray) or struct field initializers (ConstStruct).
	Values []Const

	// ConstStruct union initializers set exactly one field.
	IsUnion         bool
	UnionFieldIndex int

	// ConstGlobalPointer names the referenced global, including the `@`.
	GlobalName string
}

// IntConst returns an integer constant of the given type.
func IntConst(t *Type, v int64) Const {
	return Const{Kind: ConstInt, Type: t, Int: v}
}

// FloatConst returns a floating point constant of the given type.
func FloatConst(t *Type, v float64) Const {
	return Const{Kind: ConstFloat, Type: t, Float: v}
}

// StringConst returns a string constant of the given type.
func StringConst(t *Type, s string) Const {
	return Const{Kind: ConstString, Type: t, String: s}
}

// GlobalPointerConst returns a constant pointer to a named global.
func GlobalPointerConst(t *Type, name string) Const {
	return Const{Kind: ConstGlobalPointer, Type: t, GlobalName: name}
}

// Var is a variable reference. Local names start with `%`, globals with `@`.
// Function parameters keep their source names.
type Var struct {
	Name string
	Type *Type
}

// ValueKind discriminates Value payloads.
type ValueKind uint8

const (
	ValueConst ValueKind = iota
	ValueVar
)

// Value is an instruction operand, either a constant or a variable.
type Value struct {
	Kind  ValueKind
	Const Const
	Var   Var
}

// ConstValue wraps a constant as an operand.
func ConstValue(c Const) Value {
	return Value{Kind: ValueConst, Const: c}
}

// VarValue wraps a variable as an operand.
func VarValue(v Var) Value {
	return Value{Kind: ValueVar, Var: v}
}

// TypeOf returns the type carried by the value.
func (v Value) TypeOf() *Type {
	if v.Kind == ValueVar {
		return v.Var.Type
	}
	return v.Const.Type
}
