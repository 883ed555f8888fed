package rewrite

import "github.com/roach88/mica/internal/ir"

// Legality classifies an op kind under a conversion target.
type Legality int

const (
	// LegalityUnknown means the target says nothing about the kind.
	// Partial conversion leaves unknown ops untouched.
	LegalityUnknown Legality = iota
	// LegalityLegal means the kind may remain after conversion.
	LegalityLegal
	// LegalityIllegal means the kind must be rewritten away.
	LegalityIllegal
)

// Target declares, per op kind, what the converted module may contain.
type Target struct {
	legality map[ir.OpKind]Legality
}

// NewTarget creates an empty conversion target.
func NewTarget() *Target {
	return &Target{legality: make(map[ir.OpKind]Legality)}
}

// AddLegal marks op kinds as allowed in the converted module.
func (t *Target) AddLegal(kinds ...ir.OpKind) *Target {
	for _, k := range kinds {
		t.legality[k] = LegalityLegal
	}
	return t
}

// AddIllegal marks op kinds that must not survive conversion.
func (t *Target) AddIllegal(kinds ...ir.OpKind) *Target {
	for _, k := range kinds {
		t.legality[k] = LegalityIllegal
	}
	return t
}

// LegalityOf returns the declared legality of a kind.
func (t *Target) LegalityOf(kind ir.OpKind) Legality {
	return t.legality[kind]
}
