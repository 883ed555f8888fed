package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/roach88/mica/internal/ir"
)

// builder keeps the hand-assembled test modules readable.
type builder struct {
	t  *testing.T
	m  *ir.Module
	fn *ir.Op
}

func newBuilder(t *testing.T) *builder {
	t.Helper()
	m := ir.NewModule("test")
	fn := m.NewOp(ir.KindFunc, ir.NoOp)
	fn.SetAttr(ir.AttrSymName, ir.StringAttr{Value: "main"})
	require.NoError(t, m.Symbols().Insert("main", fn.ID))
	m.InsertAt(fn, len(m.Body))
	return &builder{t: t, m: m, fn: fn}
}

func (b *builder) global(name string, init uint64) *ir.Op {
	g := b.m.NewOp(ir.KindGlobal, ir.NoOp)
	g.SetAttr(ir.AttrSymName, ir.StringAttr{Value: name})
	g.SetAttr(ir.AttrType, ir.TypeAttr{Value: ir.I(128)})
	g.SetAttr(ir.AttrValue, ir.IntAttr{Value: uint128.From64(init)})
	g.SetAttr(ir.AttrVisibility, ir.StringAttr{Value: ir.VisibilityPrivate})
	require.NoError(b.t, b.m.Symbols().Insert(name, g.ID))
	b.m.InsertAt(g, 0)
	return g
}

func (b *builder) op(kind ir.OpKind, resultType ir.Type, operands []ir.ValueID, attrs map[string]ir.Attr) *ir.Op {
	op := b.m.NewOp(kind, b.fn.ID)
	op.Operands = operands
	for name, a := range attrs {
		op.SetAttr(name, a)
	}
	if resultType != nil {
		b.m.AddResult(op, resultType)
	}
	b.m.InsertAt(op, len(b.fn.Body))
	return op
}

func (b *builder) constant(v uint128.Uint128, t ir.Type) ir.ValueID {
	return b.op(ir.KindConstant, t, nil, map[string]ir.Attr{
		ir.AttrValue: ir.IntAttr{Value: v},
	}).Result()
}

func (b *builder) ret(operands ...ir.ValueID) {
	b.op(ir.KindReturn, nil, operands, nil)
}

func TestMachine_Arithmetic(t *testing.T) {
	b := newBuilder(t)
	a := b.constant(uint128.From64(0x1100), ir.I(128))
	c := b.constant(uint128.From64(0x22), ir.I(128))
	sum := b.op(ir.KindAddI, ir.I(128), []ir.ValueID{a, c}, nil).Result()
	shiftBy := b.constant(uint128.From64(8), ir.I(128))
	shifted := b.op(ir.KindShRUI, ir.I(128), []ir.ValueID{sum, shiftBy}, nil).Result()
	byte0 := b.op(ir.KindTruncI, ir.I(8), []ir.ValueID{shifted}, nil).Result()
	b.ret(byte0)

	results, err := New(b.m).Run("main")
	require.NoError(t, err)
	require.Len(t, results, 1)
	// (0x1100 + 0x22) >> 8 = 0x11, truncated to i8.
	assert.True(t, results[0].Elems[0].Equals(uint128.From64(0x11)))
}

func TestMachine_AddWrapsAtWidth(t *testing.T) {
	b := newBuilder(t)
	a := b.constant(uint128.Max, ir.I(128))
	c := b.constant(uint128.From64(3), ir.I(128))
	sum := b.op(ir.KindAddI, ir.I(128), []ir.ValueID{a, c}, nil).Result()
	b.ret(sum)

	results, err := New(b.m).Run("main")
	require.NoError(t, err)
	assert.True(t, results[0].Elems[0].Equals(uint128.From64(2)))
}

func TestMachine_ShiftBeyondWidthIsZero(t *testing.T) {
	b := newBuilder(t)
	a := b.constant(uint128.Max, ir.I(128))
	by := b.constant(uint128.From64(128), ir.I(128))
	shifted := b.op(ir.KindShRUI, ir.I(128), []ir.ValueID{a, by}, nil).Result()
	b.ret(shifted)

	results, err := New(b.m).Run("main")
	require.NoError(t, err)
	assert.True(t, results[0].Elems[0].IsZero())
}

func TestMachine_ShiftAmountAboveLowWordIsZero(t *testing.T) {
	// A shift amount of exactly 2^64 has an empty low word; it must
	// still zero the result rather than degenerate into a shift by 0.
	b := newBuilder(t)
	a := b.constant(uint128.Max, ir.I(128))
	by := b.constant(uint128.New(0, 1), ir.I(128))
	shifted := b.op(ir.KindShRUI, ir.I(128), []ir.ValueID{a, by}, nil).Result()
	b.ret(shifted)

	results, err := New(b.m).Run("main")
	require.NoError(t, err)
	assert.True(t, results[0].Elems[0].IsZero())
}

func TestMachine_GlobalLoadStore(t *testing.T) {
	b := newBuilder(t)
	b.global("state", 100)

	ref := b.op(ir.KindGetGlobal, ir.RefType{Elem: ir.I(128)}, nil, map[string]ir.Attr{
		ir.AttrName: ir.StringAttr{Value: "state"},
	}).Result()
	old := b.op(ir.KindLoad, ir.I(128), []ir.ValueID{ref}, nil).Result()
	delta := b.constant(uint128.From64(11), ir.I(128))
	updated := b.op(ir.KindAddI, ir.I(128), []ir.ValueID{old, delta}, nil).Result()
	b.op(ir.KindStore, nil, []ir.ValueID{updated, ref}, nil)
	b.ret(old)

	mach := New(b.m)

	v, ok := mach.GlobalValue("state")
	require.True(t, ok)
	assert.True(t, v.Equals(uint128.From64(100)))

	// Storage persists across calls: each run observes the previous
	// run's store.
	for i, want := range []uint64{100, 111, 122} {
		results, err := mach.Run("main")
		require.NoError(t, err)
		assert.True(t, results[0].Elems[0].Equals(uint128.From64(want)), "run %d", i)
	}

	v, ok = mach.GlobalValue("state")
	require.True(t, ok)
	assert.True(t, v.Equals(uint128.From64(133)))
}

func TestMachine_FromElementsAndCast(t *testing.T) {
	b := newBuilder(t)
	x := b.constant(uint128.From64(1), ir.I(64))
	y := b.constant(uint128.From64(2), ir.I(64))
	signless := ir.TensorType{Shape: []int64{2}, Elem: ir.I(64)}
	unsigned := ir.TensorType{Shape: []int64{2}, Elem: ir.IntType{Width: 64, Sign: ir.Unsigned}}
	packed := b.op(ir.KindFromElements, signless, []ir.ValueID{x, y}, nil).Result()
	cast := b.op(ir.KindUnrealizedCast, unsigned, []ir.ValueID{packed}, nil).Result()
	b.ret(cast)

	results, err := New(b.m).Run("main")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, unsigned, results[0].Type)
	assert.Equal(t, []uint128.Uint128{uint128.From64(1), uint128.From64(2)}, results[0].Elems)
}

func TestMachine_NoEntry(t *testing.T) {
	b := newBuilder(t)
	b.ret()

	_, err := New(b.m).Run("missing")
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrNoEntry, ee.Code)
}

func TestMachine_UnsupportedOp(t *testing.T) {
	b := newBuilder(t)
	rng := b.op(ir.KindRngGetAndUpdateState,
		ir.TensorType{Shape: []int64{2}, Elem: ir.IntType{Width: 64, Sign: ir.Unsigned}},
		nil, map[string]ir.Attr{ir.AttrDelta: ir.IntAttr{Value: uint128.From64(1)}})
	b.ret(rng.Result())

	_, err := New(b.m).Run("main")
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrUnsupportedOp, ee.Code)
}
