package ir

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// SymbolTable maps global symbol names to their defining ops within one
// module. Names are NFC-normalized on the way in so that externally
// supplied spellings of the same symbol compare canonically.
//
// The table is not internally synchronized. The rewrite driver applies
// patterns strictly sequentially within a module; a parallel driver
// would need a module-scoped mutex around FindOrCreate.
type SymbolTable struct {
	defs map[string]OpID
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{defs: make(map[string]OpID)}
}

// CanonicalSymbol returns the canonical (NFC) spelling of a symbol name.
func CanonicalSymbol(name string) string {
	return norm.NFC.String(name)
}

// Lookup resolves a symbol name to its defining op.
func (st *SymbolTable) Lookup(name string) (OpID, bool) {
	id, ok := st.defs[CanonicalSymbol(name)]
	return id, ok
}

// Insert registers a symbol definition. Duplicate names are rejected:
// a module has at most one definition per symbol.
func (st *SymbolTable) Insert(name string, id OpID) error {
	key := CanonicalSymbol(name)
	if key == "" {
		return fmt.Errorf("empty symbol name")
	}
	if existing, ok := st.defs[key]; ok {
		return fmt.Errorf("symbol %q already defined by op %d", key, existing)
	}
	st.defs[key] = id
	return nil
}

// FindOrCreate returns the existing definition of name, or invokes
// create and registers its result. Lookup and insertion form a single
// map operation from the caller's point of view: create runs at most
// once per name for the lifetime of the module.
func (st *SymbolTable) FindOrCreate(name string, create func() OpID) (id OpID, created bool) {
	key := CanonicalSymbol(name)
	if existing, ok := st.defs[key]; ok {
		return existing, false
	}
	id = create()
	st.defs[key] = id
	return id, true
}

// Len returns the number of registered symbols.
func (st *SymbolTable) Len() int { return len(st.defs) }
