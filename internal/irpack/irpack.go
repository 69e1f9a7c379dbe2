// Package irpack serializes IR modules to a compact msgpack wire form.
// Types are interned into a module-level table and referenced by index, so
// recursive struct types terminate and shared types stay shared across a
// round trip.
package irpack

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"cflat/internal/ir"
)

// Current schema version - increment when the wire format changes.
const schemaVersion uint16 = 1

// typeRef indexes the module's type table. noType marks a missing type.
type typeRef = uint32

const noType typeRef = ^typeRef(0)

type wireType struct {
	Kind uint8

	// Pointer pointee or array element.
	Elem typeRef
	Len  int64

	// Function signature.
	Ret      typeRef
	Params   []typeRef
	Variadic bool

	// Struct definition.
	StructID   string
	Union      bool
	FieldNames []string
	FieldTypes []typeRef
}

type wireVar struct {
	Name string
	Type typeRef
}

type wireConst struct {
	Kind   uint8
	Type   typeRef
	Int    int64
	Float  float64
	Str    string
	Values []wireConst
	Union  bool
	Field  int64
	Global string
}

type wireValue struct {
	Kind  uint8
	Const wireConst
	Var   wireVar
}

type wireAssign struct {
	Value  wireValue
	Result wireVar
}

type wireBinary struct {
	Left   wireValue
	Right  wireValue
	Result wireVar
}

type wireUnary struct {
	Operand wireValue
	Result  wireVar
}

type wireBranch struct {
	Label   string
	HasCond bool
	Cond    wireValue
}

type wireCall struct {
	Function wireValue
	Args     []wireValue
	Result   *wireVar
}

type wireRet struct {
	HasValue bool
	Value    wireValue
}

type wireAlloca struct {
	Type   typeRef
	Result wireVar
}

type wireStore struct {
	Ptr   wireValue
	Value wireValue
}

type wireMemset struct {
	Ptr    wireValue
	Value  wireValue
	Length wireValue
}

type wireMemcpy struct {
	Dest   wireValue
	Src    wireValue
	Length wireValue
}

type wireSwitchCase struct {
	Const wireConst
	Label string
}

type wireSwitch struct {
	Value   wireValue
	Cases   []wireSwitchCase
	Default string
}

type wireVa struct {
	ListSrc  wireValue
	ListDest wireValue
	Result   wireVar
	Type     typeRef
}

type wireInstruction struct {
	Opcode uint8
	Label  string

	Assign *wireAssign
	Binary *wireBinary
	Unary  *wireUnary
	Branch *wireBranch
	Call   *wireCall
	Ret    *wireRet
	Alloca *wireAlloca
	Store  *wireStore
	Memset *wireMemset
	Memcpy *wireMemcpy
	Switch *wireSwitch
	Va     *wireVa
}

type wireGlobal struct {
	Name        string
	Type        typeRef
	Initialized bool
	Value       wireConst
}

type wireFunction struct {
	Name     string
	Type     typeRef
	Params   []wireVar
	Variadic bool
	Body     []wireInstruction
}

// wireTypeDef is a named struct/union definition. Definitions are stored
// as a name-sorted slice so the encoded bytes are deterministic.
type wireTypeDef struct {
	Name string
	Type typeRef
}

type wireModule struct {
	Schema    uint16
	Name      string
	Arch      string
	Types     []wireType
	TypeDefs  []wireTypeDef
	Globals   []wireGlobal
	Functions []wireFunction
}

// Write serializes a module to w.
func Write(w io.Writer, m *ir.Module) error {
	wm, err := pack(m)
	if err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(wm)
}

// Read deserializes a module from r.
func Read(r io.Reader) (*ir.Module, error) {
	var wm wireModule
	if err := msgpack.NewDecoder(r).Decode(&wm); err != nil {
		return nil, fmt.Errorf("irpack: decode: %w", err)
	}
	return unpack(&wm)
}

// Marshal serializes a module to bytes.
func Marshal(m *ir.Module) ([]byte, error) {
	wm, err := pack(m)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(wm)
}

// Unmarshal deserializes a module from bytes.
func Unmarshal(data []byte) (*ir.Module, error) {
	var wm wireModule
	if err := msgpack.Unmarshal(data, &wm); err != nil {
		return nil, fmt.Errorf("irpack: decode: %w", err)
	}
	return unpack(&wm)
}
