package lower

import (
	"fmt"

	"lukechampine.com/uint128"

	"github.com/roach88/mica/internal/ir"
	"github.com/roach88/mica/internal/rewrite"
)

const (
	// CounterSymbol names the module-wide RNG state global. At most one
	// definition with this name exists per module, no matter how many
	// call sites are lowered.
	CounterSymbol = "rng_state"

	// CounterWidth is the counter's bit width.
	CounterWidth = 128
)

// CounterSeed is the counter's fixed initial value.
var CounterSeed = uint128.From64(0x7012395)

// RngStatePattern lowers rng.get_and_update_state into a get_global /
// load / constant / addi / store sequence against the rng_state
// counter, followed by a bit-slicing expansion of the pre-update value
// into the op's requested tensor shape.
//
// The emitted load/add/store triple is deliberately non-atomic:
// concurrent execution of the lowered program will exhibit lost
// updates. That is a semantic limitation of the lowering, not of this
// transformation, which itself runs single-threaded per module.
type RngStatePattern struct{}

func (RngStatePattern) Name() string { return "rng-get-and-update-state" }

func (RngStatePattern) OpKind() ir.OpKind { return ir.KindRngGetAndUpdateState }

func (p RngStatePattern) MatchAndRewrite(op *ir.Op, rw *rewrite.Rewriter) error {
	m := rw.Module()

	resultType, ok := m.Value(op.Result()).Type.(ir.TensorType)
	if !ok {
		return rewrite.NewResultShapeError(op.Kind, "result must be a tensor of integers")
	}
	wordSize := resultType.Elem.Width
	numElements := int(resultType.NumElements())

	// The original lowering leaves an oversized shape undefined; here it
	// is a precondition checked up front, before any graph mutation.
	if numElements*wordSize > CounterWidth {
		return rewrite.NewResultShapeError(op.Kind, fmt.Sprintf(
			"packed width %d exceeds counter width %d", numElements*wordSize, CounterWidth))
	}

	delta, ok := op.IntAttrValue(ir.AttrDelta)
	if !ok {
		return rewrite.NewResultShapeError(op.Kind, "delta attribute is required")
	}

	if _, err := ensureCounter(rw); err != nil {
		return err
	}

	seedType := ir.I(CounterWidth)
	refType := ir.RefType{Elem: seedType}

	// Get and update. Ordering matters: the store must come after the
	// load, and every later op consumes the pre-update value.
	state := rw.Create(ir.KindGetGlobal, []ir.Type{refType}, nil, map[string]ir.Attr{
		ir.AttrName: ir.StringAttr{Value: CounterSymbol},
	})
	oldVal := rw.Create(ir.KindLoad, []ir.Type{seedType}, []ir.ValueID{state.Result()}, nil)
	deltaConst := rw.Create(ir.KindConstant, []ir.Type{seedType}, nil, map[string]ir.Attr{
		ir.AttrValue: ir.IntAttr{Value: delta},
	})
	newVal := rw.Create(ir.KindAddI, []ir.Type{seedType},
		[]ir.ValueID{oldVal.Result(), deltaConst.Result()}, nil)
	rw.Create(ir.KindStore, nil, []ir.ValueID{newVal.Result(), state.Result()}, nil)

	// Pack the pre-update value into the requested shape, most
	// significant chunk first.
	smallerIntType := ir.I(wordSize)
	pieces := make([]ir.ValueID, 0, numElements)
	for i := (numElements - 1) * wordSize; i >= 0; i -= wordSize {
		shift := rw.Create(ir.KindConstant, []ir.Type{seedType}, nil, map[string]ir.Attr{
			ir.AttrValue: ir.IntAttr{Value: uint128.From64(uint64(i))},
		})
		shifted := rw.Create(ir.KindShRUI, []ir.Type{seedType},
			[]ir.ValueID{oldVal.Result(), shift.Result()}, nil)
		piece := rw.Create(ir.KindTruncI, []ir.Type{smallerIntType},
			[]ir.ValueID{shifted.Result()}, nil)
		pieces = append(pieces, piece.Result())
	}

	// The packed tensor has the right shape and widths but signless
	// elements. A cast reconciles it with the signedness the op asked
	// for; a later cast-elimination stage folds it away.
	signlessType := ir.TensorType{Shape: resultType.Shape, Elem: smallerIntType}
	packed := rw.Create(ir.KindFromElements, []ir.Type{signlessType}, pieces, nil)
	cast := rw.Create(ir.KindUnrealizedCast, []ir.Type{resultType},
		[]ir.ValueID{packed.Result()}, nil)

	return rw.ReplaceOp(op, cast.Result())
}

// ensureCounter finds or creates the rng_state global. The symbol
// table's FindOrCreate makes the check-and-insert a single operation,
// and creation inserts at the front of the module body so the global is
// visible to every call site regardless of lexical position.
//
// A symbol named rng_state that is not a memref.global means some prior
// transformation left the module inconsistent; that is an invariant
// violation, not a recoverable condition.
func ensureCounter(rw *rewrite.Rewriter) (*ir.Op, error) {
	m := rw.Module()

	id, _ := m.Symbols().FindOrCreate(CounterSymbol, func() ir.OpID {
		defer rw.SaveInsertionPoint()()
		rw.SetInsertionPointToModuleStart()
		global := rw.Create(ir.KindGlobal, nil, nil, map[string]ir.Attr{
			ir.AttrSymName:    ir.StringAttr{Value: CounterSymbol},
			ir.AttrType:       ir.TypeAttr{Value: ir.I(CounterWidth)},
			ir.AttrValue:      ir.IntAttr{Value: CounterSeed},
			ir.AttrVisibility: ir.StringAttr{Value: ir.VisibilityPrivate},
		})
		return global.ID
	})

	global := m.Op(id)
	if global == nil || global.Kind != ir.KindGlobal {
		return nil, rewrite.NewInvariantError(ir.KindGlobal, fmt.Sprintf(
			"symbol %q was defined somewhere else, not as a global", CounterSymbol))
	}
	return global, nil
}
