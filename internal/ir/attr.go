package ir

import (
	"fmt"

	"lukechampine.com/uint128"
)

// Attribute names used by the op kinds in this dialect set.
const (
	AttrSymName    = "sym_name"   // memref.global, func.func
	AttrName       = "name"       // memref.get_global: referenced symbol
	AttrValue      = "value"      // arith.constant, memref.global initial value
	AttrDelta      = "delta"      // rng.get_and_update_state increment
	AttrVisibility = "visibility" // memref.global linkage
	AttrType       = "type"       // memref.global element type
)

// VisibilityPrivate marks a global as not externally linkable.
const VisibilityPrivate = "private"

// Attr is the closed set of attribute values an op can carry.
type Attr interface {
	fmt.Stringer
	isAttr()
}

// IntAttr holds an integer constant of up to 128 bits.
type IntAttr struct {
	Value uint128.Uint128
}

func (IntAttr) isAttr() {}

func (a IntAttr) String() string { return FormatWord(a.Value) }

// StringAttr holds a string constant, typically a symbol name.
type StringAttr struct {
	Value string
}

func (StringAttr) isAttr() {}

func (a StringAttr) String() string { return fmt.Sprintf("%q", a.Value) }

// TypeAttr holds a type, used where an op refers to a type that is not
// the type of any of its operands or results.
type TypeAttr struct {
	Value Type
}

func (TypeAttr) isAttr() {}

func (a TypeAttr) String() string { return a.Value.String() }
