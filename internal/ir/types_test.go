package ir

import "testing"

func TestTypesEqual(t *testing.T) {
	pointA := NewStruct("point", []*StructField{{Name: "x", Type: I32}}, false)
	pointB := NewStruct("point", []*StructField{{Name: "x", Type: I32}, {Name: "y", Type: I32}}, false)

	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same singleton", I32, I32, true},
		{"different primitives", I32, U32, false},
		{"nil vs type", nil, I32, false},
		{"ptr structural", PointerTo(I32), PointerTo(I32), true},
		{"ptr pointee mismatch", PointerTo(I32), PointerTo(I64), false},
		{"array structural", ArrayOf(U8, 4), ArrayOf(U8, 4), true},
		{"array length mismatch", ArrayOf(U8, 4), ArrayOf(U8, 8), false},
		{"function structural", FunctionOf(I32, []*Type{F64}, false), FunctionOf(I32, []*Type{F64}, true), true},
		{"function param mismatch", FunctionOf(I32, []*Type{F64}, false), FunctionOf(I32, []*Type{F32}, false), false},
		{"struct nominal same id", pointA, pointB, true},
		{"struct different id", pointA, NewStruct("vec", nil, false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypesEqual(tt.a, tt.b); got != tt.want {
				t.Fatalf("TypesEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypePredicates(t *testing.T) {
	if !IsInteger(Bool) || !IsInteger(U64) || IsInteger(F32) || IsInteger(PointerTo(I8)) {
		t.Error("IsInteger misclassified a type")
	}
	if !IsSignedInteger(I8) || IsSignedInteger(U8) || IsSignedInteger(Bool) {
		t.Error("IsSignedInteger misclassified a type")
	}
	if !IsFloat(F32) || !IsFloat(F64) || IsFloat(I32) {
		t.Error("IsFloat misclassified a type")
	}
	if !IsScalar(I32) || !IsScalar(F64) || !IsScalar(PointerTo(Void)) || IsScalar(ArrayOf(I8, 1)) {
		t.Error("IsScalar misclassified a type")
	}
}

func TestStructFieldLookup(t *testing.T) {
	s := NewStruct("pair", []*StructField{
		{Name: "first", Type: I32},
		{Name: "second", Type: F64},
	}, false)

	f := s.Struct.FieldByName("second")
	if f == nil || f.Index != 1 || !TypesEqual(f.Type, F64) {
		t.Fatalf("FieldByName(second) = %+v", f)
	}
	if s.Struct.FieldByName("third") != nil {
		t.Fatal("FieldByName returned a field for an unknown name")
	}
}

func TestLookupArch(t *testing.T) {
	tests := []struct {
		name string
		want *Arch
	}{
		{"i386", ArchX86},
		{"x86", ArchX86},
		{"amd64", ArchX86_64},
		{"x86_64", ArchX86_64},
		{"arm32", ArchARM32},
		{"aarch32", ArchARM32},
		{"arm64", ArchARM64},
		{"aarch64", ArchARM64},
	}
	for _, tt := range tests {
		if got := LookupArch(tt.name); got != tt.want {
			t.Errorf("LookupArch(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if LookupArch("riscv64") != nil {
		t.Error("LookupArch matched an unknown architecture")
	}
}
