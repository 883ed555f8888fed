// Package interp evaluates the legal arithmetic subset of the IR. It
// exists to observe what a lowered module actually computes: tests and
// the run command execute an entry function and inspect the returned
// tensors and the final counter state.
//
// Execution is sequential and single-threaded; it mirrors exactly the
// single-threaded-at-a-time semantics the lowering assumes.
package interp

import (
	"fmt"

	"lukechampine.com/uint128"

	"github.com/roach88/mica/internal/ir"
)

// Interpreter error codes (E300-E399).
const (
	ErrNoEntry       = "E300" // entry function not found
	ErrUnsupportedOp = "E301" // op kind the evaluator cannot execute
	ErrBadOperand    = "E302" // operand of an unexpected value class
)

// EvalError describes an evaluation failure.
type EvalError struct {
	Code    string
	Op      ir.OpKind
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Op, e.Message)
}

// Tensor is an evaluated tensor result: flattened elements, each
// truncated to the element width.
type Tensor struct {
	Type  ir.TensorType
	Elems []uint128.Uint128
}

// Machine executes one module. Globals hold their storage across calls,
// so consecutive Run invocations observe counter updates.
type Machine struct {
	mod     *ir.Module
	globals map[ir.OpID]uint128.Uint128
}

// value is the evaluator's runtime value: a scalar word, a reference to
// a global's storage, or an evaluated tensor.
type value struct {
	word   uint128.Uint128
	ref    ir.OpID
	elems  []uint128.Uint128
	isRef  bool
	isPack bool
}

// New creates a machine over m with every global initialized to its
// declared initial value.
func New(m *ir.Module) *Machine {
	mach := &Machine{mod: m, globals: make(map[ir.OpID]uint128.Uint128)}
	for _, op := range m.Ops() {
		if op.Kind == ir.KindGlobal {
			init, _ := op.IntAttrValue(ir.AttrValue)
			mach.globals[op.ID] = init
		}
	}
	return mach
}

// GlobalValue returns the current storage of the named global.
func (mach *Machine) GlobalValue(name string) (uint128.Uint128, bool) {
	id, ok := mach.mod.Symbols().Lookup(name)
	if !ok {
		return uint128.Zero, false
	}
	v, ok := mach.globals[id]
	return v, ok
}

// Run executes the named entry function and returns its results as
// tensors. Scalar results are returned as rank-0 tensors.
func (mach *Machine) Run(entry string) ([]Tensor, error) {
	fn := mach.mod.Func(entry)
	if fn == nil {
		return nil, &EvalError{Code: ErrNoEntry, Op: ir.KindFunc,
			Message: fmt.Sprintf("no function %q in module %q", entry, mach.mod.Name)}
	}

	env := make(map[ir.ValueID]value)
	for _, id := range fn.Body {
		op := mach.mod.Op(id)
		if op == nil {
			continue
		}
		done, results, err := mach.step(op, env)
		if err != nil {
			return nil, err
		}
		if done {
			return results, nil
		}
	}
	return nil, nil
}

// step executes one op. It returns done=true with the function results
// when the op is a return.
func (mach *Machine) step(op *ir.Op, env map[ir.ValueID]value) (bool, []Tensor, error) {
	word := func(i int) (uint128.Uint128, error) {
		v, ok := env[op.Operands[i]]
		if !ok || v.isRef || v.isPack {
			return uint128.Zero, &EvalError{Code: ErrBadOperand, Op: op.Kind,
				Message: fmt.Sprintf("operand %d is not a scalar word", i)}
		}
		return v.word, nil
	}
	width := func(vid ir.ValueID) int {
		if t, ok := mach.mod.Value(vid).Type.(ir.IntType); ok {
			return t.Width
		}
		return ir.WordWidth
	}

	switch op.Kind {
	case ir.KindGetGlobal:
		name, _ := op.StringAttrValue(ir.AttrName)
		id, ok := mach.mod.Symbols().Lookup(name)
		if !ok {
			return false, nil, &EvalError{Code: ErrBadOperand, Op: op.Kind,
				Message: fmt.Sprintf("unknown global %q", name)}
		}
		env[op.Result()] = value{ref: id, isRef: true}

	case ir.KindLoad:
		ref, ok := env[op.Operands[0]]
		if !ok || !ref.isRef {
			return false, nil, &EvalError{Code: ErrBadOperand, Op: op.Kind,
				Message: "load operand is not a storage reference"}
		}
		env[op.Result()] = value{word: mach.globals[ref.ref]}

	case ir.KindStore:
		v, err := word(0)
		if err != nil {
			return false, nil, err
		}
		ref, ok := env[op.Operands[1]]
		if !ok || !ref.isRef {
			return false, nil, &EvalError{Code: ErrBadOperand, Op: op.Kind,
				Message: "store target is not a storage reference"}
		}
		mach.globals[ref.ref] = v

	case ir.KindConstant:
		c, _ := op.IntAttrValue(ir.AttrValue)
		env[op.Result()] = value{word: c}

	case ir.KindAddI:
		a, err := word(0)
		if err != nil {
			return false, nil, err
		}
		b, err := word(1)
		if err != nil {
			return false, nil, err
		}
		// Wraparound addition modulo the result width. Overflow is
		// expected and intentional: the counter wraps.
		sum := ir.Truncate(a.AddWrap(b), width(op.Result()))
		env[op.Result()] = value{word: sum}

	case ir.KindShRUI:
		a, err := word(0)
		if err != nil {
			return false, nil, err
		}
		n, err := word(1)
		if err != nil {
			return false, nil, err
		}
		// Compare at full width: a shift amount with bits above 2^64 must
		// still zero the result, not wrap to its low 64 bits.
		if n.Cmp(uint128.From64(ir.WordWidth)) >= 0 {
			env[op.Result()] = value{}
			break
		}
		env[op.Result()] = value{word: a.Rsh(uint(n.Lo))}

	case ir.KindTruncI:
		a, err := word(0)
		if err != nil {
			return false, nil, err
		}
		env[op.Result()] = value{word: ir.Truncate(a, width(op.Result()))}

	case ir.KindFromElements:
		elems := make([]uint128.Uint128, len(op.Operands))
		for i := range op.Operands {
			v, err := word(i)
			if err != nil {
				return false, nil, err
			}
			elems[i] = v
		}
		env[op.Result()] = value{elems: elems, isPack: true}

	case ir.KindUnrealizedCast:
		// Bit-level no-op: only the element signedness changes.
		env[op.Result()] = env[op.Operands[0]]

	case ir.KindReturn:
		results := make([]Tensor, 0, len(op.Operands))
		for _, operand := range op.Operands {
			v := env[operand]
			t := mach.mod.Value(operand).Type
			switch tt := t.(type) {
			case ir.TensorType:
				elems := v.elems
				if !v.isPack {
					elems = []uint128.Uint128{v.word}
				}
				results = append(results, Tensor{Type: tt, Elems: elems})
			case ir.IntType:
				results = append(results, Tensor{
					Type:  ir.TensorType{Elem: tt},
					Elems: []uint128.Uint128{v.word},
				})
			default:
				return false, nil, &EvalError{Code: ErrBadOperand, Op: op.Kind,
					Message: fmt.Sprintf("cannot return value of type %s", t)}
			}
		}
		return true, results, nil

	default:
		return false, nil, &EvalError{Code: ErrUnsupportedOp, Op: op.Kind,
			Message: "op kind is not executable"}
	}

	return false, nil, nil
}
