package ir

// TypeKind enumerates IR type kinds.
type TypeKind uint8

const (
	KindVoid TypeKind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindPtr
	KindArray
	KindStruct
	KindFunction
)

// PtrType is the payload of a pointer type.
type PtrType struct {
	Pointee *Type
}

// ArrayType is the payload of a fixed-size array type.
type ArrayType struct {
	Element *Type
	Length  int
}

// FunctionType is the payload of a function type.
type FunctionType struct {
	ReturnType *Type
	Params     []*Type
	IsVariadic bool
}

// StructField is a single named field of a struct or union type.
type StructField struct {
	Index int
	Name  string
	Type  *Type
}

// StructType is the payload of a struct or union type. Struct types are
// nominal: two struct types are equal iff their IDs match.
type StructType struct {
	ID      string
	Fields  []*StructField
	IsUnion bool

	fieldMap map[string]*StructField
}

// FieldByName returns the field with the given name, or nil.
func (s *StructType) FieldByName(name string) *StructField {
	if s.fieldMap == nil {
		return nil
	}
	return s.fieldMap[name]
}

// Type is a tagged union over the IR type kinds. Types are immutable once
// constructed and may be freely shared.
type Type struct {
	Kind     TypeKind
	Ptr      PtrType
	Array    ArrayType
	Function FunctionType
	Struct   StructType
}

// Shared singletons for the primitive types.
var (
	Void = &Type{Kind: KindVoid}
	Bool = &Type{Kind: KindBool}
	I8   = &Type{Kind: KindI8}
	I16  = &Type{Kind: KindI16}
	I32  = &Type{Kind: KindI32}
	I64  = &Type{Kind: KindI64}
	U8   = &Type{Kind: KindU8}
	U16  = &Type{Kind: KindU16}
	U32  = &Type{Kind: KindU32}
	U64  = &Type{Kind: KindU64}
	F32  = &Type{Kind: KindF32}
	F64  = &Type{Kind: KindF64}

	// PtrChar is the conventional `char*` type.
	PtrChar = &Type{Kind: KindPtr, Ptr: PtrType{Pointee: I8}}
)

// PointerTo returns a pointer type with the given pointee.
func PointerTo(pointee *Type) *Type {
	return &Type{Kind: KindPtr, Ptr: PtrType{Pointee: pointee}}
}

// ArrayOf returns a fixed-size array type.
func ArrayOf(element *Type, length int) *Type {
	return &Type{Kind: KindArray, Array: ArrayType{Element: element, Length: length}}
}

// FunctionOf returns a function type.
func FunctionOf(returnType *Type, params []*Type, variadic bool) *Type {
	return &Type{Kind: KindFunction, Function: FunctionType{
		ReturnType: returnType,
		Params:     params,
		IsVariadic: variadic,
	}}
}

// NewStruct returns a struct or union type with the given nominal id. Field
// indices are assigned in declaration order.
func NewStruct(id string, fields []*StructField, isUnion bool) *Type {
	fieldMap := make(map[string]*StructField, len(fields))
	for i, f := range fields {
		f.Index = i
		fieldMap[f.Name] = f
	}
	return &Type{Kind: KindStruct, Struct: StructType{
		ID:       id,
		Fields:   fields,
		IsUnion:  isUnion,
		fieldMap: fieldMap,
	}}
}

// TypesEqual reports whether two IR types are equal. Pointer, array and
// function types compare structurally; struct/union types compare by id.
func TypesEqual(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPtr:
		return TypesEqual(a.Ptr.Pointee, b.Ptr.Pointee)
	case KindArray:
		if a.Array.Length != b.Array.Length {
			return false
		}
		return TypesEqual(a.Array.Element, b.Array.Element)
	case KindFunction:
		if !TypesEqual(a.Function.ReturnType, b.Function.ReturnType) {
			return false
		}
		if len(a.Function.Params) != len(b.Function.Params) {
			return false
		}
		for i := range a.Function.Params {
			if !TypesEqual(a.Function.Params[i], b.Function.Params[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		return a.Struct.ID == b.Struct.ID
	default:
		return true
	}
}

// IsInteger reports whether t is bool or an integer type.
func IsInteger(t *Type) bool {
	switch t.Kind {
	case KindBool, KindI8, KindI16, KindI32, KindI64, KindU8, KindU16, KindU32, KindU64:
		return true
	default:
		return false
	}
}

// IsSignedInteger reports whether t is a signed integer type.
func IsSignedInteger(t *Type) bool {
	switch t.Kind {
	case KindI8, KindI16, KindI32, KindI64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is a floating point type.
func IsFloat(t *Type) bool {
	return t.Kind == KindF32 || t.Kind == KindF64
}

// IsScalar reports whether t is an integer, float or pointer type.
func IsScalar(t *Type) bool {
	return IsInteger(t) || IsFloat(t) || t.Kind == KindPtr
}
