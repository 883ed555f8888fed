package lower

import (
	"github.com/roach88/mica/internal/ir"
	"github.com/roach88/mica/internal/rewrite"
)

// PassName identifies the legalization pass in trace records.
const PassName = "legalize-to-arithmetic"

// Target returns the conversion target for LegalizeToArithmetic:
// rng.get_and_update_state must be rewritten away; the structural,
// arithmetic, memory, tensor and cast kinds it lowers to are legal.
func Target() *rewrite.Target {
	return rewrite.NewTarget().
		AddIllegal(ir.KindRngGetAndUpdateState).
		AddLegal(
			ir.KindFunc, ir.KindReturn,
			ir.KindGlobal, ir.KindGetGlobal, ir.KindLoad, ir.KindStore,
			ir.KindConstant, ir.KindAddI, ir.KindShRUI, ir.KindTruncI,
			ir.KindFromElements, ir.KindUnrealizedCast,
		)
}

// Patterns returns the pattern set for LegalizeToArithmetic.
func Patterns() (*rewrite.PatternSet, error) {
	ps := rewrite.NewPatternSet()
	if err := ps.Add(RngStatePattern{}); err != nil {
		return nil, err
	}
	return ps, nil
}

// LegalizeToArithmetic runs the pass over one module. The module either
// converts fully or the returned error describes why the pass failed.
func LegalizeToArithmetic(m *ir.Module, opts ...rewrite.Option) (*rewrite.Result, error) {
	patterns, err := Patterns()
	if err != nil {
		return nil, err
	}
	return rewrite.ApplyPartialConversion(m, Target(), patterns, opts...)
}
