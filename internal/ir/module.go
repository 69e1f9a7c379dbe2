package ir

// Global is a module-level variable. Type is always a pointer to the stored
// value's type. Uninitialized globals carry no value.
type Global struct {
	Name        string
	Type        *Type
	Initialized bool
	Value       Const
}

// FunctionDefinition is a function with a body of instructions in linear
// order. Type is the function's signature.
type FunctionDefinition struct {
	Name       string
	Type       *Type
	Params     []Var
	IsVariadic bool
	Body       []*Instruction
}

// AppendInstruction appends an instruction to the function body and returns
// it.
func (fn *FunctionDefinition) AppendInstruction(instr Instruction) *Instruction {
	p := &instr
	fn.Body = append(fn.Body, p)
	return p
}

// Module is a translation unit: globals, struct/union type definitions and
// functions, targeting a single architecture.
type Module struct {
	Name string
	Arch *Arch

	Globals []*Global

	// TypeMap holds struct/union definitions keyed by IR name.
	TypeMap map[string]*Type

	Functions []*FunctionDefinition
}

// NewModule returns an empty module for the given architecture.
func NewModule(name string, arch *Arch) *Module {
	return &Module{
		Name:    name,
		Arch:    arch,
		TypeMap: make(map[string]*Type),
	}
}

// AddGlobal appends a global to the module.
func (m *Module) AddGlobal(g *Global) {
	m.Globals = append(m.Globals, g)
}

// AddFunction appends a function definition to the module.
func (m *Module) AddFunction(fn *FunctionDefinition) {
	m.Functions = append(m.Functions, fn)
}

// LookupGlobal finds a global by name, or returns nil.
func (m *Module) LookupGlobal(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// LookupFunction finds a function definition by name, or returns nil.
func (m *Module) LookupFunction(name string) *FunctionDefinition {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
