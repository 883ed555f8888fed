package ir

// Module is one compilation unit: an arena of ops, an arena of values,
// an ordered top-level body, and a symbol table over symbol-defining
// top-level ops.
//
// All mutation goes through handles. Erased ops leave a tombstone in
// the arena so outstanding OpIDs never alias a new op.
type Module struct {
	Name string

	// Body is the ordered list of top-level ops (globals, funcs).
	Body []OpID

	ops    []*Op
	values []*Value
	syms   *SymbolTable
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, syms: newSymbolTable()}
}

// Symbols returns the module's symbol table.
func (m *Module) Symbols() *SymbolTable { return m.syms }

// NewOp allocates an op in the arena. The op is not attached to any
// body list; insertion is the caller's (usually the rewriter's) job.
func (m *Module) NewOp(kind OpKind, parent OpID) *Op {
	op := &Op{ID: OpID(len(m.ops)), Kind: kind, Parent: parent}
	m.ops = append(m.ops, op)
	return op
}

// AddResult allocates a value of the given type, defined by op, and
// appends it to the op's result list.
func (m *Module) AddResult(op *Op, t Type) ValueID {
	v := &Value{ID: ValueID(len(m.values)), Type: t, Def: op.ID}
	m.values = append(m.values, v)
	op.Results = append(op.Results, v.ID)
	return v.ID
}

// Op resolves an op handle. Returns nil for erased ops.
func (m *Module) Op(id OpID) *Op {
	if id < 0 || int(id) >= len(m.ops) {
		return nil
	}
	return m.ops[id]
}

// Value resolves a value handle.
func (m *Module) Value(id ValueID) *Value {
	if id < 0 || int(id) >= len(m.values) {
		return nil
	}
	return m.values[id]
}

// block returns the body list containing ops parented by the given op.
func (m *Module) block(parent OpID) *[]OpID {
	if parent == NoOp {
		return &m.Body
	}
	return &m.Op(parent).Body
}

// InsertAt splices op into the body list of its parent at index idx.
func (m *Module) InsertAt(op *Op, idx int) {
	list := m.block(op.Parent)
	if idx < 0 || idx > len(*list) {
		idx = len(*list)
	}
	*list = append(*list, NoOp)
	copy((*list)[idx+1:], (*list)[idx:])
	(*list)[idx] = op.ID
}

// IndexOf returns op's position within its parent body list, or -1 if
// the op is detached.
func (m *Module) IndexOf(op *Op) int {
	list := *m.block(op.Parent)
	for i, id := range list {
		if id == op.ID {
			return i
		}
	}
	return -1
}

// ReplaceAllUses rewires every operand reference from old to repl,
// across the whole module, and returns the number of uses rewired.
// Consuming ops are mutated in place, never copied.
func (m *Module) ReplaceAllUses(old, repl ValueID) int {
	n := 0
	for _, op := range m.ops {
		if op == nil {
			continue
		}
		for i, operand := range op.Operands {
			if operand == old {
				op.Operands[i] = repl
				n++
			}
		}
	}
	return n
}

// EraseOp detaches op from its parent body list and tombstones its
// arena slot. The op's results must be dead or already rewired.
func (m *Module) EraseOp(op *Op) {
	list := m.block(op.Parent)
	for i, id := range *list {
		if id == op.ID {
			*list = append((*list)[:i], (*list)[i+1:]...)
			break
		}
	}
	m.ops[op.ID] = nil
}

// Ops returns a snapshot of all live ops in program order: the module
// body in order, descending into func bodies as they appear.
func (m *Module) Ops() []*Op {
	var out []*Op
	var walk func(ids []OpID)
	walk = func(ids []OpID) {
		for _, id := range ids {
			op := m.Op(id)
			if op == nil {
				continue
			}
			out = append(out, op)
			if len(op.Body) > 0 {
				walk(op.Body)
			}
		}
	}
	walk(m.Body)
	return out
}

// Func returns the func.func op with the given symbol name.
func (m *Module) Func(name string) *Op {
	id, ok := m.syms.Lookup(name)
	if !ok {
		return nil
	}
	op := m.Op(id)
	if op == nil || op.Kind != KindFunc {
		return nil
	}
	return op
}
