package rewrite

import (
	"fmt"

	"github.com/roach88/mica/internal/ir"
)

// Rewriter exposes the graph mutation primitives patterns are allowed
// to use. All created ops are inserted at the current insertion point,
// which advances past each created op so a sequence of Create calls
// emits ops in program order.
type Rewriter struct {
	mod *ir.Module
	ip  insertPoint
}

// insertPoint addresses a position inside one body list: the list is
// identified by its parent op (ir.NoOp for the module body) and the
// position by index. Indices stay valid across Create calls because the
// rewriter only ever splices at or after its own point.
type insertPoint struct {
	parent ir.OpID
	idx    int
}

// NewRewriter creates a rewriter over m with the insertion point at the
// end of the module body.
func NewRewriter(m *ir.Module) *Rewriter {
	return &Rewriter{mod: m, ip: insertPoint{parent: ir.NoOp, idx: len(m.Body)}}
}

// Module returns the module under rewrite.
func (rw *Rewriter) Module() *ir.Module { return rw.mod }

// SetInsertionPointBefore places the insertion point immediately before
// op within its parent body.
func (rw *Rewriter) SetInsertionPointBefore(op *ir.Op) {
	rw.ip = insertPoint{parent: op.Parent, idx: rw.mod.IndexOf(op)}
}

// SetInsertionPointToModuleStart places the insertion point at the
// front of the module body, so created ops precede every existing
// top-level op.
func (rw *Rewriter) SetInsertionPointToModuleStart() {
	rw.ip = insertPoint{parent: ir.NoOp, idx: 0}
}

// SaveInsertionPoint returns a restore function for the current
// insertion point. Callers defer it around temporary repositioning:
//
//	defer rw.SaveInsertionPoint()()
func (rw *Rewriter) SaveInsertionPoint() func() {
	saved := rw.ip
	return func() { rw.ip = saved }
}

// Create allocates an op of the given kind, gives it one result per
// entry of resultTypes, and inserts it at the insertion point.
func (rw *Rewriter) Create(kind ir.OpKind, resultTypes []ir.Type, operands []ir.ValueID, attrs map[string]ir.Attr) *ir.Op {
	op := rw.mod.NewOp(kind, rw.ip.parent)
	op.Operands = append(op.Operands, operands...)
	for name, a := range attrs {
		op.SetAttr(name, a)
	}
	for _, t := range resultTypes {
		rw.mod.AddResult(op, t)
	}
	rw.mod.InsertAt(op, rw.ip.idx)
	rw.ip.idx++
	return op
}

// ReplaceOp rewires all uses of op's results to the given replacement
// values and erases op. Consuming ops keep their identity; only their
// operand handles change.
func (rw *Rewriter) ReplaceOp(op *ir.Op, replacements ...ir.ValueID) error {
	if len(replacements) != len(op.Results) {
		return fmt.Errorf("replace %s: have %d replacement values, want %d",
			op.Kind, len(replacements), len(op.Results))
	}
	for i, old := range op.Results {
		rw.mod.ReplaceAllUses(old, replacements[i])
	}
	// The erased op may sit before the insertion point in the same body.
	if rw.ip.parent == op.Parent {
		if idx := rw.mod.IndexOf(op); idx >= 0 && idx < rw.ip.idx {
			rw.ip.idx--
		}
	}
	rw.mod.EraseOp(op)
	return nil
}
