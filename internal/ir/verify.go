package ir

import "fmt"

// Verification error codes (E200-E299).
const (
	ErrOperandUndefined = "E200" // operand used before definition
	ErrResultArity      = "E201" // wrong number of results for op kind
	ErrSymbolUnresolved = "E202" // referenced symbol has no definition
	ErrSymbolKind       = "E203" // symbol resolves to an unexpected op kind
	ErrAttrMissing      = "E204" // required attribute absent
	ErrBodyMisplaced    = "E205" // body on a kind that has no region
	ErrOperandArity     = "E206" // wrong number of operands for op kind
)

// VerifyError describes one structural defect found by Verify.
type VerifyError struct {
	Code    string
	Op      OpKind
	Message string
}

func (e VerifyError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Op, e.Message)
}

// opArity fixes, per kind, how many operands and results an op carries.
// -1 means variadic.
var opArity = map[OpKind][2]int{
	KindRngGetAndUpdateState: {0, 1},
	KindFunc:                 {0, 0},
	KindReturn:               {-1, 0},
	KindGlobal:               {0, 0},
	KindGetGlobal:            {0, 1},
	KindLoad:                 {1, 1},
	KindStore:                {2, 0},
	KindConstant:             {0, 1},
	KindAddI:                 {2, 1},
	KindShRUI:                {2, 1},
	KindTruncI:               {1, 1},
	KindFromElements:         {-1, 1},
	KindUnrealizedCast:       {1, 1},
}

// Verify checks the module's structural invariants and returns all
// defects found (it does not fail fast). A nil slice means the module
// is well formed.
func Verify(m *Module) []VerifyError {
	var errs []VerifyError
	defined := make(map[ValueID]bool)

	var walk func(ids []OpID)
	walk = func(ids []OpID) {
		for _, id := range ids {
			op := m.Op(id)
			if op == nil {
				continue
			}
			errs = append(errs, verifyOp(m, op, defined)...)
			for _, r := range op.Results {
				defined[r] = true
			}
			if len(op.Body) > 0 {
				if op.Kind != KindFunc {
					errs = append(errs, VerifyError{
						Code: ErrBodyMisplaced, Op: op.Kind,
						Message: "only func.func carries a body",
					})
				}
				walk(op.Body)
			}
		}
	}
	walk(m.Body)
	return errs
}

func verifyOp(m *Module, op *Op, defined map[ValueID]bool) []VerifyError {
	var errs []VerifyError

	if arity, ok := opArity[op.Kind]; ok {
		if want := arity[0]; want >= 0 && len(op.Operands) != want {
			errs = append(errs, VerifyError{
				Code: ErrOperandArity, Op: op.Kind,
				Message: fmt.Sprintf("have %d operands, want %d", len(op.Operands), want),
			})
		}
		if want := arity[1]; want >= 0 && len(op.Results) != want {
			errs = append(errs, VerifyError{
				Code: ErrResultArity, Op: op.Kind,
				Message: fmt.Sprintf("have %d results, want %d", len(op.Results), want),
			})
		}
	}

	for _, operand := range op.Operands {
		if !defined[operand] {
			errs = append(errs, VerifyError{
				Code: ErrOperandUndefined, Op: op.Kind,
				Message: fmt.Sprintf("operand v%d used before definition", operand),
			})
		}
	}

	switch op.Kind {
	case KindGlobal, KindFunc:
		sym, ok := op.Symbol()
		if !ok || sym == "" {
			errs = append(errs, VerifyError{
				Code: ErrAttrMissing, Op: op.Kind,
				Message: "sym_name attribute is required",
			})
			break
		}
		if id, found := m.syms.Lookup(sym); !found || id != op.ID {
			errs = append(errs, VerifyError{
				Code: ErrSymbolUnresolved, Op: op.Kind,
				Message: fmt.Sprintf("symbol %q is not registered to this op", sym),
			})
		}
	case KindGetGlobal:
		sym, ok := op.StringAttrValue(AttrName)
		if !ok {
			errs = append(errs, VerifyError{
				Code: ErrAttrMissing, Op: op.Kind,
				Message: "name attribute is required",
			})
			break
		}
		id, found := m.syms.Lookup(sym)
		if !found {
			errs = append(errs, VerifyError{
				Code: ErrSymbolUnresolved, Op: op.Kind,
				Message: fmt.Sprintf("symbol %q is not defined in this module", sym),
			})
			break
		}
		if def := m.Op(id); def == nil || def.Kind != KindGlobal {
			errs = append(errs, VerifyError{
				Code: ErrSymbolKind, Op: op.Kind,
				Message: fmt.Sprintf("symbol %q does not name a memref.global", sym),
			})
		}
	case KindConstant:
		if _, ok := op.IntAttrValue(AttrValue); !ok {
			errs = append(errs, VerifyError{
				Code: ErrAttrMissing, Op: op.Kind,
				Message: "value attribute is required",
			})
		}
	case KindRngGetAndUpdateState:
		if _, ok := op.IntAttrValue(AttrDelta); !ok {
			errs = append(errs, VerifyError{
				Code: ErrAttrMissing, Op: op.Kind,
				Message: "delta attribute is required",
			})
		}
	}

	return errs
}
