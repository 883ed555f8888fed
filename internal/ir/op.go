package ir

import "lukechampine.com/uint128"

// OpKind enumerates every operation kind the IR can represent. The set
// is closed: rewrite patterns match on kinds with an exhaustive switch,
// not open-ended dynamic dispatch.
type OpKind int

const (
	KindInvalid OpKind = iota

	// High-level ops.
	KindRngGetAndUpdateState

	// Structural ops.
	KindFunc
	KindReturn

	// Storage ops.
	KindGlobal
	KindGetGlobal
	KindLoad
	KindStore

	// Arithmetic ops.
	KindConstant
	KindAddI
	KindShRUI
	KindTruncI

	// Aggregate and cast ops.
	KindFromElements
	KindUnrealizedCast
)

var kindNames = map[OpKind]string{
	KindRngGetAndUpdateState: "rng.get_and_update_state",
	KindFunc:                 "func.func",
	KindReturn:               "func.return",
	KindGlobal:               "memref.global",
	KindGetGlobal:            "memref.get_global",
	KindLoad:                 "memref.load",
	KindStore:                "memref.store",
	KindConstant:             "arith.constant",
	KindAddI:                 "arith.addi",
	KindShRUI:                "arith.shrui",
	KindTruncI:               "arith.trunci",
	KindFromElements:         "tensor.from_elements",
	KindUnrealizedCast:       "builtin.unrealized_cast",
}

func (k OpKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// OpID is an index handle into a module's op arena.
type OpID int

// NoOp is the null op handle; it also marks "parented by the module
// body" in Op.Parent.
const NoOp OpID = -1

// ValueID is an index handle into a module's value arena.
type ValueID int

// Value is an SSA-like value produced by exactly one op.
type Value struct {
	ID   ValueID
	Type Type
	Def  OpID
}

// Op is one operation in a module. Operands and results are handles
// into the owning module's value arena; Body holds nested ops for
// region-bearing kinds (func.func).
type Op struct {
	ID       OpID
	Kind     OpKind
	Operands []ValueID
	Results  []ValueID
	Attrs    map[string]Attr
	Body     []OpID
	Parent   OpID
}

// Attr returns the named attribute, or nil.
func (o *Op) Attr(name string) Attr {
	if o.Attrs == nil {
		return nil
	}
	return o.Attrs[name]
}

// SetAttr sets the named attribute.
func (o *Op) SetAttr(name string, a Attr) {
	if o.Attrs == nil {
		o.Attrs = make(map[string]Attr)
	}
	o.Attrs[name] = a
}

// StringAttrValue returns the named string attribute's value.
func (o *Op) StringAttrValue(name string) (string, bool) {
	a, ok := o.Attr(name).(StringAttr)
	return a.Value, ok
}

// IntAttrValue returns the named integer attribute's value.
func (o *Op) IntAttrValue(name string) (uint128.Uint128, bool) {
	a, ok := o.Attr(name).(IntAttr)
	return a.Value, ok
}

// TypeAttrValue returns the named type attribute's value.
func (o *Op) TypeAttrValue(name string) (Type, bool) {
	a, ok := o.Attr(name).(TypeAttr)
	if !ok {
		return nil, false
	}
	return a.Value, true
}

// Symbol returns the op's sym_name attribute, for symbol-defining ops.
func (o *Op) Symbol() (string, bool) {
	return o.StringAttrValue(AttrSymName)
}

// Result returns the single result of the op. It panics if the op does
// not have exactly one result; callers use it where the op kind
// guarantees the arity.
func (o *Op) Result() ValueID {
	if len(o.Results) != 1 {
		panic("ir: Result on op without exactly one result")
	}
	return o.Results[0]
}
