package ir

import (
	"fmt"
	"strings"
)

// Signedness distinguishes how an integer type interprets its bits.
// Arithmetic ops operate on signless values; signedness is carried on
// the types a frontend requested and reconciled by cast ops.
type Signedness int

const (
	Signless Signedness = iota
	Unsigned
	Signed
)

// Type is the closed set of value types in the IR.
type Type interface {
	fmt.Stringer
	isType()
}

// IntType is a fixed-width integer type.
type IntType struct {
	Width int
	Sign  Signedness
}

func (IntType) isType() {}

func (t IntType) String() string {
	switch t.Sign {
	case Unsigned:
		return fmt.Sprintf("ui%d", t.Width)
	case Signed:
		return fmt.Sprintf("si%d", t.Width)
	default:
		return fmt.Sprintf("i%d", t.Width)
	}
}

// I returns the signless integer type of the given width.
func I(width int) IntType { return IntType{Width: width} }

// RefType is a reference to a storage location holding one element.
type RefType struct {
	Elem IntType
}

func (RefType) isType() {}

func (t RefType) String() string { return fmt.Sprintf("ref<%s>", t.Elem) }

// TensorType is a ranked tensor of integer elements. A nil or empty
// shape denotes a rank-0 tensor with a single element.
type TensorType struct {
	Shape []int64
	Elem  IntType
}

func (TensorType) isType() {}

func (t TensorType) String() string {
	var b strings.Builder
	b.WriteString("tensor<")
	for _, d := range t.Shape {
		fmt.Fprintf(&b, "%dx", d)
	}
	b.WriteString(t.Elem.String())
	b.WriteString(">")
	return b.String()
}

// NumElements returns the product of the shape dimensions.
func (t TensorType) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// TypeEqual reports whether two types are structurally identical.
// The textual form is canonical, so string comparison suffices.
func TypeEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// ParseType parses the canonical textual form produced by Type.String.
// Accepted forms: iN, siN, uiN, ref<int-type>, tensor<[DxDx...]int-type>.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "ref<") && strings.HasSuffix(s, ">"):
		elem, err := ParseType(s[len("ref<") : len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("ref element: %w", err)
		}
		it, ok := elem.(IntType)
		if !ok {
			return nil, fmt.Errorf("ref element must be an integer type, got %s", elem)
		}
		return RefType{Elem: it}, nil
	case strings.HasPrefix(s, "tensor<") && strings.HasSuffix(s, ">"):
		return parseTensorType(s[len("tensor<") : len(s)-1])
	default:
		return parseIntType(s)
	}
}

func parseIntType(s string) (IntType, error) {
	sign := Signless
	body := s
	switch {
	case strings.HasPrefix(s, "ui"):
		sign, body = Unsigned, s[2:]
	case strings.HasPrefix(s, "si"):
		sign, body = Signed, s[2:]
	case strings.HasPrefix(s, "i"):
		body = s[1:]
	default:
		return IntType{}, fmt.Errorf("unknown type %q", s)
	}
	var width int
	if _, err := fmt.Sscanf(body, "%d", &width); err != nil || width <= 0 {
		return IntType{}, fmt.Errorf("invalid integer width in %q", s)
	}
	return IntType{Width: width, Sign: sign}, nil
}

func parseTensorType(s string) (TensorType, error) {
	parts := strings.Split(s, "x")
	var shape []int64
	for _, p := range parts[:len(parts)-1] {
		var d int64
		if _, err := fmt.Sscanf(p, "%d", &d); err != nil || d < 0 {
			return TensorType{}, fmt.Errorf("invalid tensor dimension %q", p)
		}
		shape = append(shape, d)
	}
	elem, err := parseIntType(parts[len(parts)-1])
	if err != nil {
		return TensorType{}, fmt.Errorf("tensor element: %w", err)
	}
	return TensorType{Shape: shape, Elem: elem}, nil
}
