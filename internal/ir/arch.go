package ir

// Arch describes how a target architecture maps the source language's
// primitive types onto IR types and how scalars are aligned in memory.
type Arch struct {
	Name    string
	AltName string

	UChar     *Type
	SChar     *Type
	UShort    *Type
	SShort    *Type
	UInt      *Type
	SInt      *Type
	ULong     *Type
	SLong     *Type
	ULongLong *Type
	SLongLong *Type

	Float      *Type
	Double     *Type
	LongDouble *Type

	// PtrIntType carries the result of ptoi and the operand of itop.
	PtrIntType *Type

	Int8Alignment  int
	Int16Alignment int
	Int32Alignment int
	Int64Alignment int
	F32Alignment   int
	F64Alignment   int
}

var ArchX86 = &Arch{
	Name:    "i386",
	AltName: "x86",

	UChar:     U8,
	SChar:     I8,
	UShort:    U16,
	SShort:    I16,
	UInt:      U32,
	SInt:      I32,
	ULong:     U32,
	SLong:     I32,
	ULongLong: U64,
	SLongLong: I64,

	Float:      F32,
	Double:     F64,
	LongDouble: F64,

	PtrIntType: I32,

	Int8Alignment:  1,
	Int16Alignment: 2,
	Int32Alignment: 4,
	Int64Alignment: 8,
	F32Alignment:   4,
	F64Alignment:   8,
}

var ArchX86_64 = &Arch{
	Name:    "amd64",
	AltName: "x86_64",

	UChar:     U8,
	SChar:     I8,
	UShort:    U16,
	SShort:    I16,
	UInt:      U32,
	SInt:      I32,
	ULong:     U64,
	SLong:     I64,
	ULongLong: U64,
	SLongLong: I64,

	Float:      F32,
	Double:     F64,
	LongDouble: F64,

	PtrIntType: I64,

	Int8Alignment:  1,
	Int16Alignment: 2,
	Int32Alignment: 4,
	Int64Alignment: 8,
	F32Alignment:   4,
	F64Alignment:   8,
}

var ArchARM32 = &Arch{
	Name:    "arm32",
	AltName: "aarch32",

	UChar:     U8,
	SChar:     I8,
	UShort:    U16,
	SShort:    I16,
	UInt:      U32,
	SInt:      I32,
	ULong:     U32,
	SLong:     I32,
	ULongLong: U64,
	SLongLong: I64,

	Float:      F32,
	Double:     F64,
	LongDouble: F64,

	PtrIntType: I32,

	Int8Alignment:  1,
	Int16Alignment: 2,
	Int32Alignment: 4,
	Int64Alignment: 8,
	F32Alignment:   4,
	F64Alignment:   8,
}

var ArchARM64 = &Arch{
	Name:    "arm64",
	AltName: "aarch64",

	UChar:     U8,
	SChar:     I8,
	UShort:    U16,
	SShort:    I16,
	UInt:      U32,
	SInt:      I32,
	ULong:     U64,
	SLong:     I64,
	ULongLong: U64,
	SLongLong: I64,

	Float:      F32,
	Double:     F64,
	LongDouble: F64,

	PtrIntType: I64,

	Int8Alignment:  1,
	Int16Alignment: 2,
	Int32Alignment: 4,
	Int64Alignment: 8,
	F32Alignment:   4,
	F64Alignment:   8,
}

// Arches holds the builtin architectures in lookup order.
var Arches = []*Arch{ArchX86, ArchX86_64, ArchARM32, ArchARM64}

// LookupArch finds a builtin architecture by its primary or alternate name.
// It returns nil when no architecture matches.
func LookupArch(name string) *Arch {
	for _, a := range Arches {
		if a.Name == name || a.AltName == name {
			return a
		}
	}
	return nil
}
