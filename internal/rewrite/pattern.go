package rewrite

import (
	"fmt"

	"github.com/roach88/mica/internal/ir"
)

// Pattern rewrites one op kind into legal ops. MatchAndRewrite is
// called with the rewriter's insertion point set immediately before the
// matched op; on success the pattern must have replaced the op, and on
// error it must not have mutated the graph.
type Pattern interface {
	// Name identifies the pattern in errors and trace records.
	Name() string

	// OpKind is the single op kind this pattern matches.
	OpKind() ir.OpKind

	// MatchAndRewrite rewrites op in place via rw.
	MatchAndRewrite(op *ir.Op, rw *Rewriter) error
}

// PatternSet holds the patterns registered for one conversion, keyed by
// the op kind each pattern matches.
type PatternSet struct {
	byKind map[ir.OpKind]Pattern
}

// NewPatternSet creates an empty pattern set.
func NewPatternSet() *PatternSet {
	return &PatternSet{byKind: make(map[ir.OpKind]Pattern)}
}

// Add registers a pattern. At most one pattern per op kind: the match
// contract is a closed variant switch, not an ordered candidate list.
func (ps *PatternSet) Add(patterns ...Pattern) error {
	for _, p := range patterns {
		kind := p.OpKind()
		if existing, ok := ps.byKind[kind]; ok {
			return fmt.Errorf("pattern %s: kind %s already matched by %s",
				p.Name(), kind, existing.Name())
		}
		ps.byKind[kind] = p
	}
	return nil
}

// Lookup returns the pattern registered for kind.
func (ps *PatternSet) Lookup(kind ir.OpKind) (Pattern, bool) {
	p, ok := ps.byKind[kind]
	return p, ok
}
