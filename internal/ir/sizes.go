package ir

import "fmt"

// SizeOfBits returns the size of a type in bits on the given architecture.
// Pointer width follows arch.PtrIntType. void and function types have size 0.
func SizeOfBits(arch *Arch, t *Type) int64 {
	switch t.Kind {
	case KindBool:
		return 1
	case KindI8, KindU8:
		return 8
	case KindI16, KindU16:
		return 16
	case KindI32, KindU32, KindF32:
		return 32
	case KindI64, KindU64, KindF64:
		return 64
	case KindPtr:
		return SizeOfBits(arch, arch.PtrIntType)
	case KindArray:
		return int64(t.Array.Length) * SizeOfBits(arch, t.Array.Element)
	case KindStruct:
		// Unions take the size of their largest field, structs the sum of
		// all fields. Padding fields are expected to be laid out already.
		var sum, max int64
		for _, f := range t.Struct.Fields {
			size := SizeOfBytes(arch, f.Type)
			sum += size
			if size > max {
				max = size
			}
		}
		if t.Struct.IsUnion {
			return max * 8
		}
		return sum * 8
	default:
		return 0
	}
}

// SizeOfBytes returns the size of a type in bytes, rounding up.
func SizeOfBytes(arch *Arch, t *Type) int64 {
	return (SizeOfBits(arch, t) + 7) / 8
}

// Alignment returns the alignment requirement of a type in bytes. Arrays
// align like their element, structs and unions like their first field.
func Alignment(arch *Arch, t *Type) int {
	switch t.Kind {
	case KindVoid, KindBool, KindI8, KindU8:
		return arch.Int8Alignment
	case KindI16, KindU16:
		return arch.Int16Alignment
	case KindI32, KindU32:
		return arch.Int32Alignment
	case KindI64, KindU64:
		return arch.Int64Alignment
	case KindF32:
		return arch.F32Alignment
	case KindF64:
		return arch.F64Alignment
	case KindPtr:
		return Alignment(arch, arch.PtrIntType)
	case KindArray:
		return Alignment(arch, t.Array.Element)
	case KindStruct:
		if len(t.Struct.Fields) == 0 {
			return arch.Int8Alignment
		}
		return Alignment(arch, t.Struct.Fields[0].Type)
	default:
		return 1
	}
}

// PadStruct returns a copy of a struct type with explicit padding fields
// inserted so that every field starts at an offset aligned for its type.
// Padding fields are u8 arrays named __padding_N. Unions are never padded.
func PadStruct(arch *Arch, source *Type) *Type {
	if source.Kind != KindStruct || source.Struct.IsUnion {
		panic("ir: PadStruct requires a non-union struct type")
	}

	var fields []*StructField
	padID := 0
	var offset int64
	for _, sf := range source.Struct.Fields {
		// No padding is ever needed before the first field.
		align := int64(Alignment(arch, sf.Type))
		if rem := offset % align; rem != 0 {
			padBytes := align - rem
			fields = append(fields, &StructField{
				Name: fmt.Sprintf("__padding_%d", padID),
				Type: ArrayOf(U8, int(padBytes)),
			})
			padID++
			offset += padBytes
		}
		fields = append(fields, &StructField{Name: sf.Name, Type: sf.Type})
		offset += SizeOfBytes(arch, sf.Type)
	}

	return NewStruct(source.Struct.ID, fields, false)
}
