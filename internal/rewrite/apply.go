package rewrite

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/mica/internal/ir"
)

// Application records one successful pattern application, for tracing.
type Application struct {
	RunID   string // UUIDv7 identifying the conversion run
	Seq     int    // 1-based application order within the run
	Pattern string // pattern name
	OpKind  string // textual kind of the rewritten op
}

// Recorder receives one event per pattern application. Implementations
// must tolerate being called sequentially from the driver goroutine
// only; the driver never records concurrently.
type Recorder interface {
	RecordApplication(app Application) error
}

// Result summarizes a completed conversion.
type Result struct {
	RunID        string
	Applications int
}

// Option configures a conversion run.
type Option func(*config)

type config struct {
	recorder Recorder
}

// WithRecorder attaches a trace recorder to the run.
func WithRecorder(r Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// ApplyPartialConversion rewrites m until no op with an illegal kind
// remains. Ops whose kinds the target does not mark illegal are left
// untouched, matched or not. An illegal op with no registered pattern,
// or a pattern that returns an error, fails the whole conversion;
// the module may then hold partially converted content from earlier
// successful applications, but never from the failed one.
//
// Patterns are applied strictly sequentially, one at a time, within the
// module. That ordering is what makes the symbol table's find-or-create
// safe without locking.
func ApplyPartialConversion(m *ir.Module, target *Target, patterns *PatternSet, opts ...Option) (*Result, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	runID := uuid.Must(uuid.NewV7()).String()
	res := &Result{RunID: runID}
	rw := NewRewriter(m)

	// Snapshot the worklist up front: patterns insert new ops while we
	// iterate, and replacement ops are legal by construction (they are
	// re-checked by the final scan below).
	for _, op := range m.Ops() {
		if target.LegalityOf(op.Kind) != LegalityIllegal {
			continue
		}
		pattern, ok := patterns.Lookup(op.Kind)
		if !ok {
			return res, &ConversionError{
				Code:    ErrCodeIllegalUnmatched,
				OpKind:  op.Kind,
				Message: "no pattern registered for illegal op",
			}
		}
		rw.SetInsertionPointBefore(op)
		if err := pattern.MatchAndRewrite(op, rw); err != nil {
			// Coded errors from the pattern (invariant violations, shape
			// rejections) propagate unchanged; anything else becomes a
			// PATTERN_FAILED.
			var ce *ConversionError
			if errors.As(err, &ce) {
				return res, err
			}
			return res, &ConversionError{
				Code:    ErrCodePatternFailed,
				OpKind:  op.Kind,
				Pattern: pattern.Name(),
				Message: err.Error(),
			}
		}
		res.Applications++
		if cfg.recorder != nil {
			app := Application{
				RunID:   runID,
				Seq:     res.Applications,
				Pattern: pattern.Name(),
				OpKind:  op.Kind.String(),
			}
			if err := cfg.recorder.RecordApplication(app); err != nil {
				return res, fmt.Errorf("record application: %w", err)
			}
		}
	}

	// Final legality scan over everything the patterns produced.
	for _, op := range m.Ops() {
		if target.LegalityOf(op.Kind) == LegalityIllegal {
			return res, &ConversionError{
				Code:    ErrCodeIllegalUnmatched,
				OpKind:  op.Kind,
				Message: "illegal op survived conversion",
			}
		}
	}

	return res, nil
}
