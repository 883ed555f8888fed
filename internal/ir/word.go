package ir

import (
	"fmt"
	"math/big"

	"lukechampine.com/uint128"
)

// WordWidth is the bit width of the widest integer the IR can carry in
// an attribute or evaluate at once.
const WordWidth = 128

// ParseWord parses a decimal or 0x-prefixed hexadecimal unsigned
// integer of at most 128 bits.
func ParseWord(s string) (uint128.Uint128, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return uint128.Zero, fmt.Errorf("invalid integer literal %q", s)
	}
	if n.Sign() < 0 {
		return uint128.Zero, fmt.Errorf("integer literal %q is negative", s)
	}
	if n.BitLen() > WordWidth {
		return uint128.Zero, fmt.Errorf("integer literal %q exceeds %d bits", s, WordWidth)
	}
	return uint128.FromBig(n), nil
}

// FormatWord renders a word as 0x-prefixed hexadecimal. Hexadecimal is
// the canonical form: the printer, golden files and fingerprints all
// rely on it.
func FormatWord(v uint128.Uint128) string {
	return fmt.Sprintf("0x%x", v.Big())
}

// Mask returns a word with the low width bits set.
func Mask(width int) uint128.Uint128 {
	if width <= 0 {
		return uint128.Zero
	}
	if width >= WordWidth {
		return uint128.Max
	}
	return uint128.Max.Rsh(uint(WordWidth - width))
}

// Truncate drops all bits of v at positions >= width.
func Truncate(v uint128.Uint128, width int) uint128.Uint128 {
	return v.And(Mask(width))
}
