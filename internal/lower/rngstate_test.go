package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/roach88/mica/internal/interp"
	"github.com/roach88/mica/internal/ir"
	"github.com/roach88/mica/internal/rewrite"
)

// site describes one rng.get_and_update_state call site.
type site struct {
	delta uint128.Uint128
	typ   ir.TensorType
}

// uiTensor builds a tensor type with unsigned elements of the given
// width.
func uiTensor(width int, shape ...int64) ir.TensorType {
	return ir.TensorType{Shape: shape, Elem: ir.IntType{Width: width, Sign: ir.Unsigned}}
}

// buildRngModule creates a module named "rng" whose main func holds one
// rng op per site and returns every site's result.
func buildRngModule(t *testing.T, sites ...site) *ir.Module {
	t.Helper()
	m := ir.NewModule("rng")
	fn := m.NewOp(ir.KindFunc, ir.NoOp)
	fn.SetAttr(ir.AttrSymName, ir.StringAttr{Value: "main"})
	require.NoError(t, m.Symbols().Insert("main", fn.ID))
	m.InsertAt(fn, len(m.Body))

	results := make([]ir.ValueID, 0, len(sites))
	for _, s := range sites {
		op := m.NewOp(ir.KindRngGetAndUpdateState, fn.ID)
		op.SetAttr(ir.AttrDelta, ir.IntAttr{Value: s.delta})
		results = append(results, m.AddResult(op, s.typ))
		m.InsertAt(op, len(fn.Body))
	}
	ret := m.NewOp(ir.KindReturn, fn.ID)
	ret.Operands = results
	m.InsertAt(ret, len(fn.Body))
	return m
}

// lowerAndRun legalizes m and executes main, returning the tensors and
// the final counter value.
func lowerAndRun(t *testing.T, m *ir.Module) ([]interp.Tensor, uint128.Uint128) {
	t.Helper()
	_, err := LegalizeToArithmetic(m)
	require.NoError(t, err)
	require.Empty(t, ir.Verify(m))

	mach := interp.New(m)
	results, err := mach.Run("main")
	require.NoError(t, err)

	counter, ok := mach.GlobalValue(CounterSymbol)
	require.True(t, ok)
	return results, counter
}

func TestRngStatePattern_SingletonGlobal(t *testing.T) {
	m := buildRngModule(t,
		site{delta: uint128.From64(1), typ: uiTensor(64, 2)},
		site{delta: uint128.From64(2), typ: uiTensor(32, 4)},
		site{delta: uint128.From64(3), typ: uiTensor(128, 1)},
	)

	res, err := LegalizeToArithmetic(m)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applications)

	var globals []*ir.Op
	for _, op := range m.Ops() {
		if op.Kind == ir.KindGlobal {
			globals = append(globals, op)
		}
	}
	require.Len(t, globals, 1, "every call site shares one counter definition")

	g := globals[0]
	sym, ok := g.Symbol()
	require.True(t, ok)
	assert.Equal(t, CounterSymbol, sym)

	elem, ok := g.TypeAttrValue(ir.AttrType)
	require.True(t, ok)
	assert.True(t, ir.TypeEqual(ir.I(CounterWidth), elem))

	init, ok := g.IntAttrValue(ir.AttrValue)
	require.True(t, ok)
	assert.True(t, init.Equals(CounterSeed))

	vis, ok := g.StringAttrValue(ir.AttrVisibility)
	require.True(t, ok)
	assert.Equal(t, ir.VisibilityPrivate, vis)

	// The definition precedes every use: front of the module body.
	assert.Equal(t, g.ID, m.Body[0])

	id, ok := m.Symbols().Lookup(CounterSymbol)
	require.True(t, ok)
	assert.Equal(t, g.ID, id)
}

func TestRngStatePattern_SeedAndIncrement(t *testing.T) {
	// delta=5 over tensor<2xui64>: the pre-update value packs into two
	// big-endian halves and the counter advances by 5.
	m := buildRngModule(t, site{delta: uint128.From64(5), typ: uiTensor(64, 2)})
	results, counter := lowerAndRun(t, m)

	require.Len(t, results, 1)
	require.Len(t, results[0].Elems, 2)
	assert.True(t, results[0].Elems[0].IsZero(), "high half of the seed")
	assert.True(t, results[0].Elems[1].Equals(uint128.From64(0x7012395)))
	assert.True(t, counter.Equals(uint128.From64(0x701239A)))
}

func TestRngStatePattern_ThreadsCounterThroughSites(t *testing.T) {
	// Two sites in program order: the second observes the first's
	// update, and both updates land in the final counter.
	m := buildRngModule(t,
		site{delta: uint128.From64(5), typ: uiTensor(128, 1)},
		site{delta: uint128.From64(0xFFFFFFFF), typ: uiTensor(128, 1)},
	)
	results, counter := lowerAndRun(t, m)

	require.Len(t, results, 2)
	assert.True(t, results[0].Elems[0].Equals(uint128.From64(0x7012395)))
	assert.True(t, results[1].Elems[0].Equals(uint128.From64(0x701239A)))
	// Final counter is the second site's pre-update value plus its delta.
	assert.True(t, counter.Equals(uint128.From64(0x107012399)))
	assert.True(t, counter.Equals(results[1].Elems[0].AddWrap(uint128.From64(0xFFFFFFFF))))
}

func TestRngStatePattern_Packing(t *testing.T) {
	// The first site winds the counter to a known value so the second
	// site's packed output can be checked chunk by chunk.
	want := uint128.New(0x99aabbccddeeff42, 0x1122334455667788)
	wind := site{delta: want.SubWrap(CounterSeed), typ: uiTensor(8, 1)}

	cases := []struct {
		name string
		typ  ir.TensorType
		want []uint128.Uint128
	}{
		{
			name: "2xui64",
			typ:  uiTensor(64, 2),
			want: []uint128.Uint128{
				uint128.From64(0x1122334455667788),
				uint128.From64(0x99aabbccddeeff42),
			},
		},
		{
			name: "4xui32",
			typ:  uiTensor(32, 4),
			want: []uint128.Uint128{
				uint128.From64(0x11223344),
				uint128.From64(0x55667788),
				uint128.From64(0x99aabbcc),
				uint128.From64(0xddeeff42),
			},
		},
		{
			name: "1xui8 keeps only the low byte",
			typ:  uiTensor(8, 1),
			want: []uint128.Uint128{uint128.From64(0x42)},
		},
		{
			name: "2xui32 ignores bits above the packed width",
			typ:  uiTensor(32, 2),
			want: []uint128.Uint128{
				uint128.From64(0x99aabbcc),
				uint128.From64(0xddeeff42),
			},
		},
		{
			name: "1xui128 full width",
			typ:  uiTensor(128, 1),
			want: []uint128.Uint128{want},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := buildRngModule(t, wind, site{delta: uint128.From64(1), typ: tc.typ})
			results, _ := lowerAndRun(t, m)
			require.Len(t, results, 2)
			assert.Equal(t, tc.want, results[1].Elems)
		})
	}
}

func TestRngStatePattern_ZeroElementShapeStillAdvances(t *testing.T) {
	m := buildRngModule(t, site{delta: uint128.From64(9), typ: uiTensor(8, 0)})
	results, counter := lowerAndRun(t, m)

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Elems)
	assert.True(t, counter.Equals(CounterSeed.AddWrap(uint128.From64(9))))
}

func TestRngStatePattern_CounterWraps(t *testing.T) {
	// A delta that overflows 128 bits wraps modulo 2^128.
	m := buildRngModule(t, site{delta: uint128.Max, typ: uiTensor(128, 1)})
	_, counter := lowerAndRun(t, m)
	assert.True(t, counter.Equals(CounterSeed.SubWrap(uint128.From64(1))))
}

func TestRngStatePattern_OversizedShapeRejected(t *testing.T) {
	m := buildRngModule(t, site{delta: uint128.From64(1), typ: uiTensor(64, 3)})

	_, err := LegalizeToArithmetic(m)
	var ce *rewrite.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, rewrite.ErrCodeResultShape, ce.Code)

	// The rejected site is still in the module, untouched.
	var found bool
	for _, op := range m.Ops() {
		if op.Kind == ir.KindRngGetAndUpdateState {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRngStatePattern_MissingDeltaRejected(t *testing.T) {
	m := buildRngModule(t, site{delta: uint128.From64(1), typ: uiTensor(64, 2)})
	for _, op := range m.Ops() {
		if op.Kind == ir.KindRngGetAndUpdateState {
			op.Attrs = nil
		}
	}

	_, err := LegalizeToArithmetic(m)
	var ce *rewrite.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, rewrite.ErrCodeResultShape, ce.Code)
}

func TestRngStatePattern_SymbolConflict(t *testing.T) {
	m := buildRngModule(t, site{delta: uint128.From64(1), typ: uiTensor(64, 2)})

	// A func already owns the counter's name: the module is inconsistent
	// with the lowering's invariant and the pass must abort.
	fn := m.NewOp(ir.KindFunc, ir.NoOp)
	fn.SetAttr(ir.AttrSymName, ir.StringAttr{Value: CounterSymbol})
	require.NoError(t, m.Symbols().Insert(CounterSymbol, fn.ID))
	m.InsertAt(fn, len(m.Body))

	_, err := LegalizeToArithmetic(m)
	assert.True(t, rewrite.IsInvariantViolation(err))
}

func TestRngStatePattern_ScalarResultRejected(t *testing.T) {
	m := ir.NewModule("rng")
	fn := m.NewOp(ir.KindFunc, ir.NoOp)
	fn.SetAttr(ir.AttrSymName, ir.StringAttr{Value: "main"})
	require.NoError(t, m.Symbols().Insert("main", fn.ID))
	m.InsertAt(fn, len(m.Body))

	op := m.NewOp(ir.KindRngGetAndUpdateState, fn.ID)
	op.SetAttr(ir.AttrDelta, ir.IntAttr{Value: uint128.From64(1)})
	v := m.AddResult(op, ir.I(128))
	m.InsertAt(op, len(fn.Body))

	ret := m.NewOp(ir.KindReturn, fn.ID)
	ret.Operands = []ir.ValueID{v}
	m.InsertAt(ret, len(fn.Body))

	_, err := LegalizeToArithmetic(m)
	var ce *rewrite.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, rewrite.ErrCodeResultShape, ce.Code)
}
