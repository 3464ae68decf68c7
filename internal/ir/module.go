package ir

// Module is the top-level container: named functions (unique by name),
// globals, string/constant interning tables, the bytecode string pool
// (int id -> literal) and a mapping from synthesized identifiers
// (str_<id>, global_<id>) to their original names, named types, and
// key/value metadata. A module exclusively owns its functions and its
// constant/global tables.
type Module struct {
	Name string

	Functions map[string]*Function
	FuncOrder []string

	Globals map[string]*GlobalValue

	constInterner map[string]*Constant

	// StringPool mirrors the decoder's module-level string pool
	// (integer id -> literal), surfaced for identifier-hint resolution.
	StringPool map[int]string

	// IdentHints maps synthesized identifiers (str_<id>, global_<id>)
	// produced during lowering back to their resolved original names,
	// consumed by VariableReconstruction and the pretty-printer boundary.
	IdentHints map[string]string

	NamedTypes map[string]*Type
	Metadata   map[string]string
}

func NewModule(name string) *Module {
	return &Module{
		Name:          name,
		Functions:     make(map[string]*Function),
		Globals:       make(map[string]*GlobalValue),
		constInterner: make(map[string]*Constant),
		StringPool:    make(map[int]string),
		IdentHints:    make(map[string]string),
		NamedTypes:    make(map[string]*Type),
		Metadata:      make(map[string]string),
	}
}

// CreateFunction creates and registers a new, empty function.
func (m *Module) CreateFunction(name string, ret *Type) *Function {
	fn := NewFunction(name, ret)
	fn.Mod = m
	m.Functions[name] = fn
	m.FuncOrder = append(m.FuncOrder, name)
	return fn
}

func (m *Module) GetFunction(name string) (*Function, bool) {
	fn, ok := m.Functions[name]
	return fn, ok
}

// RemoveFunction detaches name's function from the module.
func (m *Module) RemoveFunction(name string) {
	delete(m.Functions, name)
	for i, n := range m.FuncOrder {
		if n == name {
			m.FuncOrder = append(m.FuncOrder[:i], m.FuncOrder[i+1:]...)
			return
		}
	}
}

// InternConstant returns the module's shared representative for a
// structurally identical constant, creating and registering one on
// first use. Constants are context-free and may be shared across
// functions per the data model.
func (m *Module) InternConstant(c *Constant) *Constant {
	key := c.key()
	if existing, ok := m.constInterner[key]; ok {
		return existing
	}
	m.constInterner[key] = c
	return c
}

// DefineGlobal registers (or returns the existing) named global value.
func (m *Module) DefineGlobal(name string, t *Type, defined bool) *GlobalValue {
	if g, ok := m.Globals[name]; ok {
		return g
	}
	g := &GlobalValue{Nm: name, Typ: t, Defined: defined}
	m.Globals[name] = g
	return g
}

// ResolveIdent returns the original name hinted for a synthesized
// identifier (str_<id>/global_<id>), or the identifier unchanged if no
// hint is recorded.
func (m *Module) ResolveIdent(synthetic string) string {
	if orig, ok := m.IdentHints[synthetic]; ok {
		return orig
	}
	return synthetic
}

// Verify checks every function; per §4.9, a verifier failure quarantines
// only the offending function, so Verify keeps going across failures and
// returns every fault found, tagged by function.
func (m *Module) Verify() []*VerifyFault {
	var out []*VerifyFault
	for _, name := range m.FuncOrder {
		fn := m.Functions[name]
		out = append(out, fn.Verify()...)
	}
	return out
}
